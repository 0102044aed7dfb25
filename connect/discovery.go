package connect

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode/model"
)

// Discovery is the outcome of listing one service's tools. Either Tools
// or Err is populated; a service that declares no tools yields both
// empty.
type Discovery struct {
	ServiceID   string       `json:"serviceId"`
	ServiceName string       `json:"serviceName"`
	Tools       []model.Tool `json:"tools,omitempty"`
	Err         string       `json:"error,omitempty"`
}

// DiscoverAll lists the tools of every given service. Services are
// queried concurrently; results come back in input order, one entry per
// service. A failing service contributes an error entry and never
// aborts the sweep.
func DiscoverAll(ctx context.Context, services []model.ServiceConfig, opts ...Option) []Discovery {
	o := buildOptions(opts)
	results := make([]Discovery, len(services))

	var wg sync.WaitGroup
	for i, svc := range services {
		wg.Add(1)
		go func(i int, svc model.ServiceConfig) {
			defer wg.Done()
			results[i] = discoverOne(ctx, svc, o)
		}(i, svc)
	}
	wg.Wait()
	return results
}

func discoverOne(ctx context.Context, svc model.ServiceConfig, o options) Discovery {
	d := Discovery{ServiceID: svc.ID, ServiceName: svc.DisplayName()}

	if err := svc.Validate(); err != nil {
		d.Err = err.Error()
		return d
	}

	if svc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.Timeout)
		defer cancel()
	}

	session, err := o.dialer(ctx, svc)
	if err != nil {
		o.logf("discovery: service %s unreachable: %v", svc.ID, err)
		d.Err = err.Error()
		return d
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			o.logf("discovery: closing %s: %v", svc.ID, cerr)
		}
	}()

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		o.logf("discovery: listing tools of %s: %v", svc.ID, err)
		d.Err = err.Error()
		return d
	}
	for _, mt := range res.Tools {
		d.Tools = append(d.Tools, model.FromMCPTool(svc, mt))
	}
	return d
}
