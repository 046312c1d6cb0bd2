package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrProtoVersion,
		ErrBadRequest,
		ErrUnknownFamily,
		ErrNotFound,
		ErrRateLimit,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestNewError(t *testing.T) {
	e := NewError("b1", ErrUnknownFamily, "no family %q", "village")
	if e.Type != TypeError || e.ProtocolVersion != Version {
		t.Fatalf("header=%s/%s", e.Type, e.ProtocolVersion)
	}
	if e.ReqID != "b1" || e.Code != ErrUnknownFamily || e.Message != `no family "village"` {
		t.Fatalf("error=%+v", e)
	}
}
