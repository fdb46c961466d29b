package api

import (
	"encoding/json"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantNil  bool
		wantData bool
	}{
		{"empty body", "", true, false},
		{"whitespace", "  \n", true, false},
		{"not json", "<html>bad gateway</html>", true, false},
		{"json without status", `{"message":"nope"}`, true, false},
		{"error envelope", `{"status":"ERROR","message":"X"}`, false, false},
		{"success with data", `{"status":"SUCCESS","data":"abc","handshake":"h"}`, false, true},
		{"success with null data", `{"status":"SUCCESS","data":null}`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decodeEnvelope([]byte(tt.body))
			if (env == nil) != tt.wantNil {
				t.Fatalf("decodeEnvelope() nil = %v, want %v", env == nil, tt.wantNil)
			}
			if env != nil && env.HasData() != tt.wantData {
				t.Errorf("HasData() = %v, want %v", env.HasData(), tt.wantData)
			}
		})
	}
}

func TestEnvelope_Pagination(t *testing.T) {
	body := `{"status":"SUCCESS","data":"x","handshake":"h",
		"pagination":{"page":1,"limit":10,"total":23,"totalPages":3}}`

	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := Pagination{Page: 1, Limit: 10, Total: 23, TotalPages: 3}
	if env.Pagination == nil || *env.Pagination != want {
		t.Errorf("Pagination = %+v, want %+v", env.Pagination, want)
	}

	blob, err := env.Blob()
	if err != nil || blob != "x" {
		t.Errorf("Blob() = %q, %v", blob, err)
	}
}

func TestEnvelope_ErrorText(t *testing.T) {
	if got := (&Envelope{Message: "m", Error: "e"}).ErrorText(); got != "m" {
		t.Errorf("ErrorText() = %q, want message first", got)
	}
	if got := (&Envelope{Error: "e"}).ErrorText(); got != "e" {
		t.Errorf("ErrorText() = %q, want error fallback", got)
	}
}

func TestEnvelope_BlobRejectsObject(t *testing.T) {
	env := Envelope{Data: json.RawMessage(`{"id":1}`)}
	if _, err := env.Blob(); err == nil {
		t.Error("Blob() should fail for a non-string data field")
	}
}
