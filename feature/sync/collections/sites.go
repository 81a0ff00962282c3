package collections

import (
	"context"

	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"
	"netbox-sync/core/utils"
)

var siteCompareFields = []string{FieldName}

// Sites reconciles the inventory's site list against NetBox dcim sites.
// Only creation is supported: renaming or removing a site changes the
// meaning of every device assigned to it, so both stay manual.
type Sites struct {
	opts Options

	records []netbox.Record
	set     *reconcile.ItemSet
}

// NewSites returns a site collection for one run.
func NewSites(opts Options) *Sites {
	return &Sites{opts: opts}
}

func (s *Sites) Name() string { return NameSites }

func (s *Sites) CompareFields() []string { return siteCompareFields }

func (s *Sites) Fetch(ctx context.Context, scope reconcile.Scope) error {
	records, err := s.opts.Client.Paginate(ctx, netbox.PathSites, filterValues(scope.Filters))
	if err != nil {
		return err
	}
	s.records = records
	s.set = nil
	return nil
}

func (s *Sites) ItemSet() (*reconcile.ItemSet, error) {
	if s.set == nil {
		s.set = reconcile.Build(s.records, s.itemize, SiteKey)
	}
	return s.set, nil
}

// itemize keys sites by slug so free-form display names on either side
// cannot split one site into two.
func (s *Sites) itemize(rec netbox.Record) reconcile.Fields {
	slug := rec.Str("slug")
	if slug == "" {
		return nil
	}
	return reconcile.Fields{FieldName: slug}
}

// PlanCreate hands out POST tasks. Sites have no references to resolve,
// so there is nothing to prepare and nothing to skip.
func (s *Sites) PlanCreate(_ context.Context, _ map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		payload := map[string]any{
			"name": item[FieldName],
			"slug": utils.Slugify(item[FieldName]),
		}
		return func(ctx context.Context) (any, error) {
			resp, err := s.opts.Client.Post(ctx, netbox.PathSites, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}
