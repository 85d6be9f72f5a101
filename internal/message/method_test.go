package message

import "testing"

func TestParseMethod(t *testing.T) {
	tests := []struct {
		tok  string
		want Method
		ok   bool
	}{
		{"GET", MethodGET, true},
		{"POST", MethodPOST, true},
		{"PUT", MethodPUT, true},
		{"DELETE", MethodDELETE, true},
		{"PATCH", MethodPATCH, true},
		{"HEAD", MethodHEAD, true},
		{"OPTIONS", MethodOPTIONS, true},
		{"get", MethodUnknown, false},
		{"TRACE", MethodUnknown, false},
		{"", MethodUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got, ok := ParseMethod([]byte(tt.tok))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("method = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMethod_String(t *testing.T) {
	if MethodGET.String() != "GET" {
		t.Fatalf("String() = %q, want GET", MethodGET.String())
	}
	if MethodUnknown.String() != "" {
		t.Fatalf("String() = %q, want empty", MethodUnknown.String())
	}
}
