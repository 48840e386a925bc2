package service

import "testing"

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}
	token, err := GenerateJWT(42, sid)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	userID, gotSID, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if userID != 42 || gotSID != sid {
		t.Fatalf("ParseJWT = (%d, %q), want (42, %q)", userID, gotSID, sid)
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	if _, _, err := ParseJWT("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := GenerateJWT(7, "abc123")
	if err != nil {
		t.Fatal(err)
	}

	InitJWT("secret-two")
	if _, _, err := ParseJWT(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}
