package diag

import "testing"

func TestFromDescriptorsSuccessIffEmpty(t *testing.T) {
	ok := FromDescriptors(StatusAuthoritative, "", nil)
	if !ok.Success {
		t.Fatalf("expected success for empty list")
	}
	if ok.Errors == nil || len(ok.Errors) != 0 {
		t.Fatalf("expected empty non-nil errors, got %#v", ok.Errors)
	}

	bad := FromDescriptors(StatusAuthoritative, "", []Descriptor{Message(OriginAnalyzer, "boom")})
	if bad.Success {
		t.Fatalf("expected failure when descriptors are present")
	}
	if len(bad.Errors) != 1 || bad.Errors[0].Message != "boom" {
		t.Fatalf("unexpected errors: %#v", bad.Errors)
	}
}

func TestLimitKeepsDiscoveryOrder(t *testing.T) {
	errs := []Descriptor{
		At(OriginHeuristic, 9, 1, "third by position"),
		At(OriginHeuristic, 0, 1, "first by position"),
		At(OriginHeuristic, 4, 1, "second by position"),
	}
	out := FromDescriptors(StatusHeuristicOnly, "", errs).Limit(2)
	if len(out.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(out.Errors))
	}
	if out.Errors[0].Message != "third by position" || out.Errors[1].Message != "first by position" {
		t.Fatalf("limit reordered descriptors: %#v", out.Errors)
	}
}

func TestAppendMarksFailure(t *testing.T) {
	out := Succeeded(StatusDegraded, "analyzer timed out").Append(Message(OriginBridge, "analyzer timed out"))
	if out.Success {
		t.Fatalf("expected failure after append")
	}
	if out.Status != StatusDegraded || out.Note == "" {
		t.Fatalf("append must keep annotations: %+v", out)
	}
}

func TestDescriptorString(t *testing.T) {
	cases := []struct {
		d    Descriptor
		want string
	}{
		{AtLineCol(OriginAnalyzer, 2, 4, "unexpected token"), "3:5: unexpected token"},
		{At(OriginHeuristic, 7, 1, "unexpected closing brace }"), "@7: unexpected closing brace }"},
		{Message(OriginAnalyzer, "oops"), "oops"},
		{Descriptor{Message: "no column", Line: Int(0)}, "1:1: no column"},
	}
	for _, tc := range cases {
		if got := tc.d.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}
