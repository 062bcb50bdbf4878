package fold

import "testing"

func TestFolder_Fold(t *testing.T) {
	tests := []struct {
		name        string
		insensitive bool
		in          string
		want        string
	}{
		{"insensitive lowers", true, "Kitchen Light", "kitchen light"},
		{"insensitive unicode", true, "STRASSE", "strasse"},
		{"sensitive keeps case", false, "Kitchen Light", "Kitchen Light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.insensitive).Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFolder_Equal(t *testing.T) {
	if !New(true).Equal("ArmAway", "armaway") {
		t.Error("insensitive folder should treat ArmAway and armaway as equal")
	}
	if New(false).Equal("ArmAway", "armaway") {
		t.Error("sensitive folder should distinguish ArmAway and armaway")
	}
	var zero Folder
	if zero.CaseInsensitive() {
		t.Error("zero Folder should be case-sensitive")
	}
}

func TestFolder_Compile(t *testing.T) {
	re, err := New(true).Compile(`^the (\S+)$`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !re.MatchString("THE Lamp") {
		t.Error("insensitive pattern should match regardless of case")
	}
	if re.MatchString("the two lamps") {
		t.Error(`\S must keep its meaning`)
	}

	re, err = New(false).Compile(`^the (.+)$`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if re.MatchString("THE lamp") {
		t.Error("sensitive pattern should not match different case")
	}

	if _, err := New(true).Compile("("); err == nil {
		t.Error("Compile(\"(\") should fail")
	}
}
