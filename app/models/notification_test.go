package models

import (
	"encoding/json"
	"testing"
)

func TestRecipientsUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Recipients
		wantErr bool
	}{
		{"broadcast", `"all"`, BroadcastRecipients(), false},
		{"targeted", `["g1","g2"]`, TargetedRecipients("g1", "g2"), false},
		{"empty list", `[]`, TargetedRecipients(), false},
		{"other string", `"everyone"`, Recipients{}, true},
		{"number", `42`, Recipients{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Recipients
			err := json.Unmarshal([]byte(tt.in), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Broadcast != tt.want.Broadcast || len(got.GuardianIDs) != len(tt.want.GuardianIDs) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPaymentDetailsValue(t *testing.T) {
	v, err := PaymentDetails{LastFour: "4242", ExpiryDate: "12/27"}.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != `{"lastFour":"4242","expiryDate":"12/27"}` {
		t.Errorf("Value() = %v", v)
	}

	var back PaymentDetails
	if err := back.Scan([]byte(v.(string))); err != nil {
		t.Fatal(err)
	}
	if back.LastFour != "4242" {
		t.Errorf("Scan lastFour = %q", back.LastFour)
	}
}
