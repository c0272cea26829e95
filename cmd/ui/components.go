package ui

import (
	"fmt"
	"strings"
)

// RefClass is the display category of a reference
type RefClass int

const (
	ClassBranch RefClass = iota
	ClassTag
	ClassRemote
	ClassOther
)

// ClassifyRefForDisplay picks the display category from a full refname
func ClassifyRefForDisplay(refname string) RefClass {
	switch {
	case strings.HasPrefix(refname, "refs/heads/"):
		return ClassBranch
	case strings.HasPrefix(refname, "refs/tags/"):
		return ClassTag
	case strings.HasPrefix(refname, "refs/remotes/"):
		return ClassRemote
	default:
		return ClassOther
	}
}

// FormatRef renders one "oid refname" line with category coloring
func FormatRef(refname, oidHex string) string {
	name := refname
	switch ClassifyRefForDisplay(refname) {
	case ClassBranch:
		name = BranchStyle.Render(refname)
	case ClassTag:
		name = TagStyle.Render(refname)
	case ClassRemote:
		name = RemoteStyle.Render(refname)
	}
	return fmt.Sprintf("%s %s", OidStyle.Render(oidHex), name)
}

// FormatSymref renders a "name -> target" line
func FormatSymref(refname, target string) string {
	return fmt.Sprintf("%s %s %s", SymrefStyle.Render(refname), IconSymref, target)
}

// FormatBroken renders a broken ref line
func FormatBroken(refname string) string {
	return fmt.Sprintf("%s %s", Red(IconWarning), BrokenStyle.Render(refname))
}

// SuccessMessage creates a success message with a checkmark icon
func SuccessMessage(message string, details ...string) string {
	parts := []string{Green(IconCheck), Green(message)}
	for _, detail := range details {
		parts = append(parts, Blue(detail))
	}
	return strings.Join(parts, " ")
}

// WarningMessage creates a highlighted warning line
func WarningMessage(message string) string {
	return fmt.Sprintf("%s %s", Yellow(IconWarning), Yellow(message))
}

// BranchInfo formats branch information with an icon
func BranchInfo(branchName string) string {
	return fmt.Sprintf("%s Branch: %s", Cyan(IconBranch), Blue(branchName))
}
