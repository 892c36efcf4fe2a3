package metagen

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/kitaplan/kitaplan-backend/internal/data/repos"
	"github.com/kitaplan/kitaplan-backend/internal/domain"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

// Loader fetches the full curriculum-reference and module catalogs for one
// request. Both fetches run concurrently; a failure of either discards the
// whole load, so the prompt is never built from a partial catalog.
type Loader struct {
	refs    repos.CurriculumReferenceRepo
	modules repos.EducationalModuleRepo
	log     *logger.Logger
}

func NewLoader(refs repos.CurriculumReferenceRepo, modules repos.EducationalModuleRepo, baseLog *logger.Logger) *Loader {
	return &Loader{refs: refs, modules: modules, log: baseLog.With("component", "loader")}
}

func (l *Loader) Load(ctx context.Context) (*RefContext, error) {
	var (
		refs    []*domain.CurriculumReference
		modules []*domain.EducationalModule
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs, err = l.refs.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		modules, err = l.modules.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, errors.New("curriculum reference catalog is empty")
	}
	if len(modules) == 0 {
		return nil, errors.New("educational module catalog is empty")
	}

	return &RefContext{Refs: refs, Modules: modules}, nil
}
