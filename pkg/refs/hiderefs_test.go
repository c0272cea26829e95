package refs

import "testing"

func TestHideRefs(t *testing.T) {
	h := ParseHideRefs([]string{
		"refs/hidden",
		"!refs/hidden/but-visible",
		"^refs/exact",
		"refs/trailing/",
	})

	tests := []struct {
		refname string
		want    bool
	}{
		{"refs/hidden", true},
		{"refs/hidden/sub", true},
		{"refs/hidden/but-visible", false},
		{"refs/hidden/but-visible/deeper", false},
		{"refs/hiddenmore", false},
		{"refs/exact", true},
		{"refs/exact/sub", false},
		{"refs/trailing", true},
		{"refs/trailing/x", true},
		{"refs/heads/main", false},
	}

	for _, tt := range tests {
		t.Run(tt.refname, func(t *testing.T) {
			if got := h.Hidden(tt.refname); got != tt.want {
				t.Errorf("Hidden(%q) = %v, want %v", tt.refname, got, tt.want)
			}
		})
	}
}

func TestHideRefs_LastPatternWins(t *testing.T) {
	h := ParseHideRefs([]string{"refs/a", "!refs/a", "refs/a/b"})
	if h.Hidden("refs/a") {
		t.Error("negation should re-expose refs/a")
	}
	if !h.Hidden("refs/a/b") {
		t.Error("later pattern should hide refs/a/b")
	}
}

func TestHideRefs_Nil(t *testing.T) {
	var h *HideRefs
	if h.Hidden("refs/heads/main") {
		t.Error("nil matcher hides nothing")
	}
}
