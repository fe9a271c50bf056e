package dispatch

import "testing"

func TestVerify(t *testing.T) {
	body := []byte(`{"kind":"booking","id":"b1","status":11}`)
	sig := Sign(body, "s3cret")

	if !Verify(body, sig, "s3cret") {
		t.Fatalf("expected valid signature")
	}
	if Verify(body, sig, "other") {
		t.Fatalf("expected mismatch with another secret")
	}
	if Verify([]byte(`{"kind":"booking","id":"b1","status":7}`), sig, "s3cret") {
		t.Fatalf("expected mismatch for tampered body")
	}
	if Verify(body, "", "s3cret") || Verify(body, sig, "") {
		t.Fatalf("empty signature or secret must fail")
	}
}
