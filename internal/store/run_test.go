package store

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/roach88/keepmark/internal/report"
)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, r := markedApp(t, "run-0001")

	inserted, err := s.WriteRun(ctx, run, r)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if !inserted {
		t.Fatal("WriteRun() inserted = false for a new run")
	}

	got, err := s.ReadRun(ctx, "run-0001")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Seq != 1 {
		t.Errorf("Seq = %d, want 1", got.Seq)
	}
	run.Seq = got.Seq
	if !reflect.DeepEqual(got, run) {
		t.Errorf("ReadRun() = %+v, want %+v", got, run)
	}
}

func TestWriteRun_DuplicateIDKeepsFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, r := markedApp(t, "dup")

	if _, err := s.WriteRun(ctx, run, r); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}
	second := run
	second.Policy = "precise"
	inserted, err := s.WriteRun(ctx, second, r)
	if err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}
	if inserted {
		t.Error("second WriteRun() inserted = true")
	}

	got, err := s.ReadRun(ctx, "dup")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Policy != "conservative" {
		t.Errorf("Policy = %q, want the first run's", got.Policy)
	}
}

func TestWriteRun_EmptyID(t *testing.T) {
	s := createTestStore(t)
	run, r := markedApp(t, "")
	if _, err := s.WriteRun(context.Background(), run, r); err == nil {
		t.Error("WriteRun() with empty id should fail")
	}
}

func TestWriteRun_NilReport(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, _ := markedApp(t, "bare")

	if _, err := s.WriteRun(ctx, run, nil); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	marks, err := s.ReadMarks(ctx, "bare")
	if err != nil {
		t.Fatalf("ReadMarks() failed: %v", err)
	}
	if len(marks) != 0 {
		t.Errorf("ReadMarks() = %d marks, want 0", len(marks))
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ReadRun() error = %v, want ErrRunNotFound", err)
	}
	_, err = s.LatestRun(context.Background())
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LatestRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Fatalf("ListRuns() on empty store = %v, want empty slice", runs)
	}

	for _, id := range []string{"b", "a", "c"} {
		run, r := markedApp(t, id)
		if _, err := s.WriteRun(ctx, run, r); err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", id, err)
		}
	}

	runs, err = s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "a", "c"}) {
		t.Errorf("ListRuns() ids = %v", ids)
	}

	latest, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if latest.ID != "c" {
		t.Errorf("LatestRun() = %s, want c", latest.ID)
	}
}

func TestReadMarks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, r := markedApp(t, "run-1")
	if _, err := s.WriteRun(ctx, run, r); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	marks, err := s.ReadMarks(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadMarks() failed: %v", err)
	}
	// 8 classes, 9 members, 3 resources.
	if len(marks) != 20 {
		t.Fatalf("ReadMarks() = %d marks, want 20", len(marks))
	}
	// class < field < method < resource
	if marks[0].Kind != report.KindClass || marks[len(marks)-1].Kind != report.KindResource {
		t.Errorf("marks not ordered by kind: first %s, last %s", marks[0].Kind, marks[len(marks)-1].Kind)
	}

	var count *Mark
	for i := range marks {
		if marks[i].Node == "com.example.Worker.count:I" {
			count = &marks[i]
		}
	}
	if count == nil {
		t.Fatal("Worker.count not stored")
	}
	want := Mark{Kind: report.KindField, Node: "com.example.Worker.count:I", Owner: "com.example.Worker", State: "used"}
	if *count != want {
		t.Errorf("Worker.count = %+v, want %+v", *count, want)
	}
}

func TestCountStates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, r := markedApp(t, "run-1")
	if _, err := s.WriteRun(ctx, run, r); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	counts, err := s.CountStates(ctx, "run-1", report.KindClass)
	if err != nil {
		t.Fatalf("CountStates() failed: %v", err)
	}
	want := map[string]int{"used": 4, "unused": 4}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("CountStates() = %v, want %v", counts, want)
	}
}

func TestReadExplanation_MatchesReport(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, r := markedApp(t, "run-1")
	if _, err := s.WriteRun(ctx, run, r); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	// Worker is the fourth program class; count is its first member.
	want := r.Classes[3].Members[0]
	got, err := s.ReadExplanation(ctx, "run-1", "com.example.Worker.count:I")
	if err != nil {
		t.Fatalf("ReadExplanation() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadExplanation() = %+v, want %+v", got, want)
	}
	if len(got.Hops) != 4 {
		t.Errorf("hops = %d, want 4", len(got.Hops))
	}

	unused, err := s.ReadExplanation(ctx, "run-1", "com.example.Dead")
	if err != nil {
		t.Fatalf("ReadExplanation(Dead) failed: %v", err)
	}
	if unused.State != "unused" || unused.Hops != nil {
		t.Errorf("Dead = %+v, want unused without hops", unused)
	}

	_, err = s.ReadExplanation(ctx, "run-1", "com.example.Nope")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("ReadExplanation(Nope) error = %v, want ErrNodeNotFound", err)
	}
}

func TestReadKeptBy(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, r := markedApp(t, "run-1")
	if _, err := s.WriteRun(ctx, run, r); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	marks, err := s.ReadKeptBy(ctx, "run-1", "com.example.Worker")
	if err != nil {
		t.Fatalf("ReadKeptBy() failed: %v", err)
	}
	var nodes []string
	for _, m := range marks {
		nodes = append(nodes, m.Node)
	}
	if !reflect.DeepEqual(nodes, []string{"com.example.Worker.count:I"}) {
		t.Errorf("ReadKeptBy(Worker) = %v", nodes)
	}
}

func TestHops_ForeignKeys(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec(`
		INSERT INTO hops (run_id, kind, node, position, certain, depth, reason, class, member)
		VALUES ('ghost', 'class', 'x', 0, 1, 0, 'r', 'none', 'none')
	`)
	if err == nil {
		t.Error("hop without a mark should violate the foreign key")
	}
}

func TestUUIDv7Generator(t *testing.T) {
	var gen RunIDGenerator = UUIDv7Generator{}
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		if !pattern.MatchString(id) {
			t.Fatalf("Generate() = %q, not a UUIDv7", id)
		}
		if seen[id] {
			t.Fatalf("Generate() repeated %q", id)
		}
		seen[id] = true
	}
}
