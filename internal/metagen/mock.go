package metagen

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// mockGenerator synthesizes structurally valid candidates from the loaded
// catalogs without any network I/O. It is used for tests and cost-free
// development.
type mockGenerator struct {
	rnd *rand.Rand
}

func NewMockGenerator() Generator {
	return &mockGenerator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func newMockGeneratorWithSeed(seed int64) Generator {
	return &mockGenerator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *mockGenerator) Generate(ctx context.Context, requestID uuid.UUID, in GenerateInput) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	modules := make([]string, 0, len(in.Refs.Modules))
	for _, i := range g.subset(len(in.Refs.Modules)) {
		modules = append(modules, in.Refs.Modules[i].Name)
	}

	codes := make([]string, 0, len(in.Refs.Refs))
	for _, i := range g.subset(len(in.Refs.Refs)) {
		codes = append(codes, in.Refs.Refs[i].Code)
	}

	objectives := make([]string, 0, len(modules))
	for _, name := range modules {
		objectives = append(objectives, fmt.Sprintf("Children practice %s through the planned activity.", name))
	}

	return Candidate{
		Raw: RawOutput{
			Reasoning:      "Mock selection from the loaded catalogs.",
			Modules:        modules,
			CurriculumRefs: codes,
			Objectives:     objectives,
		},
	}, nil
}

// subset picks a uniformly random non-empty index subset of [0, n).
func (g *mockGenerator) subset(n int) []int {
	if n == 0 {
		return nil
	}
	k := 1 + g.rnd.Intn(n)
	idx := g.rnd.Perm(n)[:k]
	return idx
}
