package protocol_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelstruct.ai/internal/buildsvc"
	"voxelstruct.ai/internal/protocol"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/tuning"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// validate round-trips v through JSON so Go values are checked in their wire
// form.
func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate %s: %v", b, err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	helloSchema := compile(t, "hello.schema.json")
	buildSchema := compile(t, "build.schema.json")
	errorSchema := compile(t, "error.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"bot1",
	  "capabilities":{"max_queue":8,"blocks":true}
	}`), &hello)
	if err := helloSchema.Validate(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}

	var build any
	_ = json.Unmarshal([]byte(`{
	  "type":"BUILD",
	  "protocol_version":"1.0",
	  "req_id":"b1",
	  "family":"mineshaft",
	  "seed":42,
	  "anchor":[0,64,0],
	  "facing":"north"
	}`), &build)
	if err := buildSchema.Validate(build); err != nil {
		t.Fatalf("build: %v", err)
	}

	var bad any
	_ = json.Unmarshal([]byte(`{"type":"BUILD","protocol_version":"1.0","family":"village","seed":1,"anchor":[0,0]}`), &bad)
	if err := buildSchema.Validate(bad); err == nil {
		t.Fatalf("expected unknown family and short anchor rejected")
	}

	validate(t, errorSchema, protocol.NewError("b1", protocol.ErrUnknownFamily, "unknown family %q", "village"))
}

func TestSchemas_ValidateServerMessages(t *testing.T) {
	welcomeSchema := compile(t, "welcome.schema.json")
	structureSchema := compile(t, "structure.schema.json")

	tune := tuning.Defaults()
	svc := buildsvc.New(buildsvc.Config{Registry: families.Default(tune), Tuning: tune})
	validate(t, welcomeSchema, svc.Welcome("sess-1"))

	for i, fam := range svc.Families() {
		in, err := svc.Build(context.Background(), protocol.BuildMsg{
			Type:            protocol.TypeBuild,
			ProtocolVersion: protocol.Version,
			ReqID:           fam,
			Family:          fam,
			Seed:            int64(i + 1),
			Anchor:          [3]int{i * 400, 64, 0},
		}, "test")
		if err != nil {
			t.Fatalf("Build %s: %v", fam, err)
		}
		validate(t, structureSchema, svc.Describe(fam, in, i%2 == 0))
	}
}
