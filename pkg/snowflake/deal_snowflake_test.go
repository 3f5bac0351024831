package snowflake

import (
	"sync"
	"testing"
	"time"
)

func TestNewGeneratorWorkerBounds(t *testing.T) {
	tests := []struct {
		name     string
		workerID int64
		wantErr  bool
	}{
		{"first worker", 0, false},
		{"last worker", 63, false},
		{"negative", -1, true},
		{"past the field", 64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.workerID)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGenerator(%d) error = %v, wantErr %v", tt.workerID, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateUniqueAcrossSequenceOverflow(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}

	// Well past 1024 per millisecond, forcing overflow into the spin path.
	ids := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if ids[id] {
			t.Fatalf("duplicate run ID: %d", id)
		}
		ids[id] = true
	}
}

func TestGenerateConcurrent(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	ids := sync.Map{}
	goroutines := 10
	perGoroutine := 1000

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, err := gen.Generate()
				if err != nil {
					t.Errorf("Generate() error = %v", err)
					return
				}
				if _, loaded := ids.LoadOrStore(id, true); loaded {
					t.Errorf("duplicate run ID: %d", id)
					return
				}
			}
		}()
	}
	wg.Wait()

	count := 0
	ids.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	if want := goroutines * perGoroutine; count != want {
		t.Errorf("unique IDs = %d, want %d", count, want)
	}
}

func TestGenerateChronological(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}

	var ids []int64
	for i := 0; i < 100; i++ {
		id, _ := gen.Generate()
		ids = append(ids, id)
		time.Sleep(10 * time.Microsecond)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("run IDs out of order: ids[%d]=%d <= ids[%d]=%d", i, ids[i], i-1, ids[i-1])
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	gen, err := NewGenerator(42)
	if err != nil {
		t.Fatal(err)
	}

	before := time.Now()
	id, _ := gen.Generate()
	after := time.Now()

	ts, workerID, seq := Parse(id)
	if workerID != 42 {
		t.Errorf("workerID = %d, want 42", workerID)
	}
	if seq != 0 {
		t.Errorf("sequence = %d, want 0 for a fresh millisecond", seq)
	}
	if ts.Before(before.Add(-time.Second)) || ts.After(after.Add(time.Second)) {
		t.Errorf("timestamp %v outside [%v, %v]", ts, before, after)
	}

	if got := Timestamp(id); !got.Equal(ts) {
		t.Errorf("Timestamp(id) = %v, Parse timestamp = %v", got, ts)
	}
}

func TestWorkerIDSurvivesEncoding(t *testing.T) {
	// Both field extremes must decode to themselves.
	for _, workerID := range []int64{0, 63} {
		gen, err := NewGenerator(workerID)
		if err != nil {
			t.Fatal(err)
		}
		id, _ := gen.Generate()
		if _, got, _ := Parse(id); got != workerID {
			t.Errorf("Parse worker = %d, want %d", got, workerID)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	gen, _ := NewGenerator(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gen.Generate()
	}
}
