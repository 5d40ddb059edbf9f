package engine

import (
	"strings"
	"testing"

	"github.com/shaiso/taskflow/internal/domain"
)

func TestParseTokens(t *testing.T) {
	body := "a {{0.output}} b {{abc-1.output}} {{ 1.output}} {{2.outputs}} {{3.output}}"
	tokens := ParseTokens(body)

	refs := make([]string, len(tokens))
	for i, tok := range tokens {
		refs[i] = tok.Ref
		if body[tok.Start:tok.End] != FormatToken(tok.Ref) {
			t.Errorf("token bounds mismatch: %q", body[tok.Start:tok.End])
		}
	}

	if strings.Join(refs, ",") != "0,abc-1,3" {
		t.Errorf("unexpected refs: %v", refs)
	}
}

func TestEligibleReferences(t *testing.T) {
	tasks := []domain.Task{
		apiTask("a0", validAPI()),
		emailTask("e1", validEmail()),
		apiTask("a2", validAPI()),
		emailTask("e3", validEmail()),
		apiTask("a4", validAPI()),
	}

	tests := []struct {
		name     string
		position int
		expected []int
	}{
		{name: "first email", position: 1, expected: []int{0}},
		{name: "second email", position: 3, expected: []int{0, 2}},
		{name: "api task", position: 2, expected: nil},
		{name: "out of range", position: 9, expected: nil},
		{name: "negative", position: -1, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := EligibleReferences(tasks, tt.position)
			if len(refs) != len(tt.expected) {
				t.Fatalf("expected %d refs, got %d", len(tt.expected), len(refs))
			}
			for i, r := range refs {
				if r.Position != tt.expected[i] {
					t.Errorf("ref %d: expected position %d, got %d", i, tt.expected[i], r.Position)
				}
				if r.Position >= tt.position || tasks[r.Position].Type != domain.TaskTypeAPI {
					t.Errorf("ineligible ref %+v", r)
				}
				if r.LocalID != tasks[r.Position].LocalID {
					t.Errorf("ref %d: localId mismatch", i)
				}
			}
		})
	}

	if !IsEligible(tasks, 3, 2) {
		t.Error("a2 should be eligible for e3")
	}
	if IsEligible(tasks, 1, 2) {
		t.Error("a2 should not be eligible for e1")
	}
}

func TestInsertReference(t *testing.T) {
	if got := InsertReference("Hello", 0); got != "Hello\n{{0.output}}" {
		t.Errorf("unexpected body: %q", got)
	}
	if got := InsertReference("", 3); got != "\n{{3.output}}" {
		t.Errorf("unexpected body: %q", got)
	}
}

func TestReferencedTasks(t *testing.T) {
	email := validEmail()
	email.Body = "{{0.output}} {{7.output}} {{x.output}}"
	tasks := []domain.Task{apiTask("a0", validAPI()), emailTask("e1", email)}

	refs := ReferencedTasks(tasks, 1)
	if len(refs) != 1 || refs[0].LocalID != "a0" {
		t.Errorf("expected only a0, got %+v", refs)
	}
}

func TestRebaseReferences_Move(t *testing.T) {
	email := validEmail()
	email.Body = "first {{0.output}} second {{1.output}}"
	before := []domain.Task{
		apiTask("a", validAPI()),
		apiTask("b", validAPI()),
		emailTask("e", email),
	}

	// Меняем местами a и b
	after := domain.CloneTasks(before)
	after[0], after[1] = after[1], after[0]

	RebaseReferences(before, after)

	if got := after[2].Email.Body; got != "first {{1.output}} second {{0.output}}" {
		t.Errorf("unexpected body after move: %q", got)
	}
	if before[2].Email.Body != email.Body {
		t.Error("before must not be modified")
	}
}

func TestRebaseReferences_Remove(t *testing.T) {
	email := validEmail()
	email.Body = "{{0.output}} {{1.output}} {{9.output}} {{keep.output}}"
	before := []domain.Task{
		apiTask("a", validAPI()),
		apiTask("b", validAPI()),
		emailTask("e", email),
	}
	after := domain.CloneTasks(before[1:])

	RebaseReferences(before, after)

	expected := "{{a.output}} {{0.output}} {{9.output}} {{keep.output}}"
	if got := after[1].Email.Body; got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	// Осиротевшая ссылка помечается валидатором
	v := ValidateAll(after)
	if !contains(v["e"], FieldBody) {
		t.Errorf("expected body violation for orphaned reference, got %v", v)
	}
}
