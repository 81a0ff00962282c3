package collections

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var portChannelCompareFields = []string{FieldPortChannel}

// lagRef names one port-channel of one device within a run's LAG cache.
type lagRef struct {
	Hostname string
	Name     string
}

// PortChannels reconciles port-channel membership. The unit of work is
// the member interface: its compared field is the name of the LAG it
// belongs to, so moving a member between port-channels is an update and
// removing it from its LAG is a delete. The LAG interfaces themselves
// are ordinary interfaces and belong to the interfaces collection.
type PortChannels struct {
	opts Options

	mu      sync.Mutex
	records []netbox.Record
	lags    map[lagRef]netbox.Record
	set     *reconcile.ItemSet
}

// NewPortChannels returns a port-channel collection for one run.
func NewPortChannels(opts Options) *PortChannels {
	return &PortChannels{opts: opts}
}

func (p *PortChannels) Name() string { return NamePortChannels }

func (p *PortChannels) CompareFields() []string { return portChannelCompareFields }

// Fetch loads LAG interfaces per scope device, then each LAG's member
// interfaces via the lag_id filter. The LAG records are cached for the
// run: mutation planning patches members against these ids and must not
// fetch them again mid-dispatch.
func (p *PortChannels) Fetch(ctx context.Context, scope reconcile.Scope) error {
	p.records = nil
	p.lags = make(map[lagRef]netbox.Record)
	p.set = nil

	if len(scope.Devices) == 0 {
		lags, err := p.opts.Client.Paginate(ctx, netbox.PathInterfaces, url.Values{"type": []string{"lag"}})
		if err != nil {
			return err
		}
		return p.fetchMembers(ctx, lags)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, device := range scope.Devices {
		if device == "" {
			continue
		}
		device := device
		g.Go(func() error {
			params := url.Values{}
			params.Set("device", device)
			params.Set("type", "lag")
			lags, err := p.opts.Client.Paginate(gctx, netbox.PathInterfaces, params)
			if err != nil {
				return err
			}
			return p.fetchMembers(gctx, lags)
		})
	}
	return g.Wait()
}

func (p *PortChannels) fetchMembers(ctx context.Context, lags []netbox.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, lag := range lags {
		host := p.opts.hostname(lag.Str("device", "name"))
		name := lag.Str("name")
		if host == "" || name == "" {
			continue
		}

		p.mu.Lock()
		p.lags[lagRef{Hostname: host, Name: name}] = lag
		p.mu.Unlock()

		lag := lag
		g.Go(func() error {
			params := url.Values{}
			params.Set("lag_id", strconv.Itoa(lag.ID()))
			members, err := p.opts.Client.Paginate(ctx, netbox.PathInterfaces, params)
			if err != nil {
				return err
			}
			p.mu.Lock()
			p.records = append(p.records, members...)
			p.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (p *PortChannels) ItemSet() (*reconcile.ItemSet, error) {
	if p.set == nil {
		p.set = reconcile.Build(p.records, p.itemize, PortChannelKey)
	}
	return p.set, nil
}

func (p *PortChannels) itemize(rec netbox.Record) reconcile.Fields {
	host := rec.Str("device", "name")
	name := rec.Str("name")
	if host == "" || name == "" {
		return nil
	}
	return reconcile.Fields{
		FieldHostname:    p.opts.hostname(host),
		FieldInterface:   name,
		FieldPortChannel: rec.Str("lag", "name"),
	}
}

// PlanCreate attaches members to their LAG: the member interface is
// resolved once per run and patched with the cached LAG id. A member or
// LAG that NetBox does not know yet is skipped; the interfaces sync has
// to land first.
func (p *PortChannels) PlanCreate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	return p.planAttach(ctx, items, "port-channel member create skipped")
}

// PlanUpdate moves members between LAGs with the same patch.
func (p *PortChannels) PlanUpdate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	return p.planAttach(ctx, items, "port-channel member update skipped")
}

func (p *PortChannels) planAttach(ctx context.Context, items map[reconcile.Key]reconcile.Fields, skipMsg string) (reconcile.TaskConstructor, error) {
	refs := make([]netbox.InterfaceRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, netbox.InterfaceRef{
			Device: item[FieldHostname],
			Name:   item[FieldInterface],
		})
	}
	members, err := p.opts.Client.InterfaceTable(ctx, refs)
	if err != nil {
		return nil, err
	}

	log := p.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		lag, ok := p.lags[lagRef{Hostname: item[FieldHostname], Name: item[FieldPortChannel]}]
		if !ok {
			log.Warn(skipMsg,
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("portchan", item[FieldPortChannel]),
				zap.String("reason", "lag not in netbox"))
			return nil
		}
		member, ok := members[netbox.InterfaceRef{Device: item[FieldHostname], Name: item[FieldInterface]}]
		if !ok {
			log.Warn(skipMsg,
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("reason", "member interface not in netbox"))
			return nil
		}

		path := fmt.Sprintf("%s%d/", netbox.PathInterfaces, member.ID())
		payload := map[string]any{"lag": lag.ID()}
		return func(ctx context.Context) (any, error) {
			resp, err := p.opts.Client.Patch(ctx, path, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

// PlanDelete detaches members the inventory no longer places in a LAG.
// The member interface itself stays; only its lag reference is cleared.
func (p *PortChannels) PlanDelete(_ context.Context, _ map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	log := p.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		rec, ok := p.record(key)
		if !ok {
			log.Warn("port-channel member detach skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("reason", "no fetched record"))
			return nil
		}

		path := fmt.Sprintf("%s%d/", netbox.PathInterfaces, rec.ID())
		payload := map[string]any{"lag": nil}
		return func(ctx context.Context) (any, error) {
			resp, err := p.opts.Client.Patch(ctx, path, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

func (p *PortChannels) record(key reconcile.Key) (netbox.Record, bool) {
	if p.set == nil {
		return nil, false
	}
	rec, ok := p.set.Record(key).(netbox.Record)
	return rec, ok
}
