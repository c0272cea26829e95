package refs

import "testing"

func TestCheckFormat(t *testing.T) {
	tests := []struct {
		name    string
		refname string
		flags   FormatFlag
		want    bool
	}{
		{"branch", "refs/heads/main", 0, true},
		{"nested", "refs/heads/feature/login", 0, true},
		{"tag", "refs/tags/v1.0.0", 0, true},
		{"one level rejected", "main", 0, false},
		{"one level allowed", "HEAD", AllowOneLevel, true},
		{"empty", "", 0, false},
		{"at sign alone", "@", AllowOneLevel, false},
		{"double dot", "refs/heads/a..b", 0, false},
		{"at brace", "refs/heads/a@{b", 0, false},
		{"plain at ok", "refs/heads/a@b", 0, true},
		{"leading dot component", "refs/heads/.hidden", 0, false},
		{"trailing dot", "refs/heads/main.", 0, false},
		{"inner dot ok", "refs/heads/v1.2", 0, true},
		{"lock suffix", "refs/heads/main.lock", 0, false},
		{"lock inner ok", "refs/heads/main.locker", 0, true},
		{"space", "refs/heads/my branch", 0, false},
		{"tab", "refs/heads/a\tb", 0, false},
		{"control char", "refs/heads/a\x01b", 0, false},
		{"colon", "refs/heads/a:b", 0, false},
		{"question", "refs/heads/a?b", 0, false},
		{"bracket", "refs/heads/a[b", 0, false},
		{"backslash", `refs/heads/a\b`, 0, false},
		{"caret", "refs/heads/a^b", 0, false},
		{"tilde", "refs/heads/a~b", 0, false},
		{"star without pattern", "refs/heads/*", 0, false},
		{"star with pattern", "refs/heads/*", RefspecPattern, true},
		{"star mid-pattern", "refs/heads/*/sub", RefspecPattern, true},
		{"two stars", "refs/*/x/*", RefspecPattern, false},
		{"partial star component", "refs/heads/a*", RefspecPattern, false},
		{"empty component", "refs//heads", 0, false},
		{"trailing slash", "refs/heads/", 0, false},
		{"del char", "refs/heads/a\x7fb", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckFormat(tt.refname, tt.flags); got != tt.want {
				t.Errorf("CheckFormat(%q, %v) = %v, want %v", tt.refname, tt.flags, got, tt.want)
			}
		})
	}
}

func TestIsSafe(t *testing.T) {
	tests := []struct {
		refname string
		want    bool
	}{
		{"refs/heads/main", true},
		{"refs/foo/../bar", true},
		{"refs/foo/../../bar", false},
		{"refs/..", false},
		{"refs/", false},
		{"HEAD", true},
		{"FETCH_HEAD", true},
		{"MERGE_HEAD", true},
		{"ORIG-HEAD", true},
		{"STASH2", true},
		{"head", false},
		{"Mixed_Case", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.refname, func(t *testing.T) {
			if got := IsSafe(tt.refname); got != tt.want {
				t.Errorf("IsSafe(%q) = %v, want %v", tt.refname, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		refname string
		want    Kind
	}{
		{"HEAD", KindPerWorktree},
		{"refs/bisect/bad", KindPerWorktree},
		{"refs/bisect/good-abc", KindPerWorktree},
		{"FETCH_HEAD", KindPseudo},
		{"MERGE_HEAD", KindPseudo},
		{"CHERRY_PICK_HEAD", KindPseudo},
		{"refs/heads/main", KindNormal},
		{"refs/tags/v1", KindNormal},
		{"refs/replace/abcd", KindNormal},
		{"refs/heads/HEAD", KindNormal},
	}

	for _, tt := range tests {
		t.Run(tt.refname, func(t *testing.T) {
			if got := Classify(tt.refname); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.refname, got, tt.want)
			}
		})
	}
}

func TestPrettify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"refs/heads/main", "main"},
		{"refs/tags/v1.0", "v1.0"},
		{"refs/remotes/origin/main", "origin/main"},
		{"refs/notes/commits", "refs/notes/commits"},
		{"HEAD", "HEAD"},
	}

	for _, tt := range tests {
		if got := Prettify(tt.in); got != tt.want {
			t.Errorf("Prettify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsBranch(t *testing.T) {
	if !IsBranch("HEAD") || !IsBranch("refs/heads/main") {
		t.Error("IsBranch should accept HEAD and refs/heads/*")
	}
	if IsBranch("refs/tags/v1") {
		t.Error("IsBranch should reject tags")
	}
}
