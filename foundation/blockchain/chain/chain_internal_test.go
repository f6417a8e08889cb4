package chain

import "testing"

func Test_TamperDetection(t *testing.T) {
	ts := 1700000000.0
	now := func() float64 {
		ts++
		return ts
	}

	ch, err := New(Config{EnableMerkle: true, Now: now})
	if err != nil {
		t.Fatalf("Should be able to construct the chain: %s", err)
	}

	for _, s := range []string{"A", "B", "C"} {
		if _, err := ch.Append(Many(s)); err != nil {
			t.Fatalf("Should be able to append: %s", err)
		}
	}

	if !ch.Validate() {
		t.Fatalf("Should have a valid chain before tampering.")
	}

	ch.blocks[1].payload = Many("X")
	if ch.Validate() {
		t.Fatalf("Should detect a payload change without a hash update.")
	}

	hash, err := ch.blocks[1].CalculateHash()
	if err != nil {
		t.Fatalf("Should be able to recalculate the hash: %s", err)
	}
	ch.blocks[1].hash = hash

	if ch.Validate() {
		t.Fatalf("Should detect the stale previous hash on the next block.")
	}

	if err := ch.Verify(); err == nil {
		t.Fatalf("Should get an error describing the failure.")
	}
}

func Test_GenesisNotVerified(t *testing.T) {
	ch, err := New(Config{})
	if err != nil {
		t.Fatalf("Should be able to construct the chain: %s", err)
	}

	ch.blocks[0].payload = Single("changed")

	if !ch.Validate() {
		t.Fatalf("Should not verify the genesis block against its contents.")
	}
}
