package cleanup

import (
	"reflect"
	"testing"

	"enumguard/internal/catalog"
	"enumguard/internal/census"
	"enumguard/internal/deviceid"
)

func ids(actions []Action) []deviceid.ID {
	out := make([]deviceid.ID, 0, len(actions))
	for _, action := range actions {
		out = append(out, action.ID)
	}
	return out
}

func TestClassifyCatalogOverridesGlobal(t *testing.T) {
	snapshot := census.Snapshot{"AAAA1111": 120, "BBBB2222": 40}
	cat := catalog.New(50, catalog.Entry{ID: "AAAA1111", Threshold: 50})

	actions := Classify(snapshot, deviceid.NewSet(), cat, 100)
	want := []Action{{ID: "AAAA1111", Count: 120, Threshold: 50, Reason: ReasonCatalog}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("got %+v want %+v", actions, want)
	}
	if cat.Len() != 1 {
		t.Fatalf("classification must not enroll, catalog has %d entries", cat.Len())
	}
}

func TestClassifyLockIsAbsolute(t *testing.T) {
	snapshot := census.Snapshot{"AAAA1111": 120, "BBBB2222": 40}
	cat := catalog.New(50, catalog.Entry{ID: "AAAA1111", Threshold: 50})

	if actions := Classify(snapshot, deviceid.NewSet("AAAA1111"), cat, 100); len(actions) != 0 {
		t.Fatalf("expected no actions, got %+v", actions)
	}
	huge := census.Snapshot{"CCCC3333": 100000}
	if actions := Classify(huge, deviceid.NewSet("CCCC3333"), catalog.New(50), 100); len(actions) != 0 {
		t.Fatalf("locked unknown identifier must not be enrolled, got %+v", actions)
	}
}

func TestClassifyCatalogThresholdIsStrict(t *testing.T) {
	cat := catalog.New(50, catalog.Entry{ID: "AAAA1111", Threshold: 50})
	if actions := Classify(census.Snapshot{"AAAA1111": 50}, nil, cat, 100); len(actions) != 0 {
		t.Fatalf("count equal to catalog threshold must not clean, got %+v", actions)
	}
	if actions := Classify(census.Snapshot{"AAAA1111": 51}, nil, cat, 100); len(actions) != 1 {
		t.Fatalf("count above catalog threshold must clean, got %+v", actions)
	}
}

func TestClassifyGlobalThresholdIsInclusive(t *testing.T) {
	cat := catalog.New(50)
	actions := Classify(census.Snapshot{"CCCC3333": 100}, nil, cat, 100)
	want := []Action{{ID: "CCCC3333", Count: 100, Threshold: 100, Reason: ReasonGlobal, Enroll: true}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("got %+v want %+v", actions, want)
	}
	if actions := Classify(census.Snapshot{"CCCC3333": 99}, nil, cat, 100); len(actions) != 0 {
		t.Fatalf("count below global threshold must be left alone, got %+v", actions)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	snapshot := census.Snapshot{"BBBB2222": 150, "AAAA1111": 150, "CCCC3333": 300, "DDDD4444": 10}
	cat := catalog.New(50, catalog.Entry{ID: "DDDD4444", Threshold: 5})
	want := []deviceid.ID{"CCCC3333", "AAAA1111", "BBBB2222", "DDDD4444"}
	for i := 0; i < 20; i++ {
		if got := ids(Classify(snapshot, nil, cat, 100)); !reflect.DeepEqual(got, want) {
			t.Fatalf("iteration %d: got %v want %v", i, got, want)
		}
	}
}
