package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// HandleCall decodes msg according to op, routes it to the matching handler and
// returns the encoded response. Privileged operations are rejected unless actor
// is capability.SystemActor. Bind and remove return an empty body.
func (p *Provider) HandleCall(ctx context.Context, actor, op string, msg []byte) (resp []byte, err error) {
	start := time.Now()
	ctx = p.observer.OnCallStart(ctx, actor, op)
	defer func() {
		p.observer.OnCallComplete(ctx, op, time.Since(start), err)
	}()

	p.logger.Debug("received host call", "actor", actor, "operation", op)

	// Held for the whole call; Close takes the write lock before emptying the registry.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, eventstreams.NewError(eventstreams.KindDispatch, op, ErrClosed)
	}

	operation := capability.ParseOperation(op)
	if !operation.Permitted(actor) {
		return nil, badDispatch(actor, op)
	}

	switch operation {
	case capability.BindActor:
		var cfg capability.Configuration
		if err := p.decode(op, msg, &cfg); err != nil {
			return nil, err
		}
		return nil, p.bindActor(ctx, cfg)

	case capability.RemoveActor:
		return nil, p.removeActor(p.removeTarget(actor, msg))

	case capability.GetCapabilityDescriptor:
		return p.encode(op, Describe())

	case capability.WriteEvent:
		var event eventstreams.Event
		if err := p.decode(op, msg, &event); err != nil {
			return nil, err
		}
		result, err := p.adapter.WriteEvent(ctx, actor, event)
		if err != nil {
			return nil, err
		}
		return p.encode(op, result)

	case capability.QueryStream:
		var query eventstreams.StreamQuery
		if err := p.decode(op, msg, &query); err != nil {
			return nil, err
		}
		result, err := p.adapter.QueryStream(ctx, actor, query)
		if err != nil {
			return nil, err
		}
		return p.encode(op, result)

	case capability.Unknown:
		return nil, badDispatch(actor, op)
	}

	return nil, badDispatch(actor, op)
}

func (p *Provider) bindActor(ctx context.Context, cfg capability.Configuration) error {
	p.logger.Info("binding actor", "actor", cfg.Module)
	if err := p.registry.Configure(ctx, cfg); err != nil {
		p.logger.Error("failed to bind actor", "actor", cfg.Module, "error", err)
		return err
	}
	return nil
}

// removeTarget picks the identity a RemoveActor call drops. A payload naming a module
// selects that module; otherwise the caller's identity is the key.
func (p *Provider) removeTarget(actor string, msg []byte) string {
	if len(msg) == 0 {
		return actor
	}
	var cfg capability.Configuration
	if err := p.codec.Unmarshal(msg, &cfg); err != nil {
		p.logger.Debug("remove payload is not a configuration, using caller identity",
			"actor", actor, "error", err)
		return actor
	}
	if cfg.Module == "" {
		return actor
	}
	return cfg.Module
}

func (p *Provider) removeActor(actor string) error {
	p.logger.Info("removing actor", "actor", actor)
	return p.registry.Deconfigure(actor)
}

func (p *Provider) decode(op string, msg []byte, v any) error {
	if err := p.codec.Unmarshal(msg, v); err != nil {
		return eventstreams.NewError(eventstreams.KindDecode, op, err)
	}
	return nil
}

func (p *Provider) encode(op string, v any) ([]byte, error) {
	data, err := p.codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode response: %w", op, err)
	}
	return data, nil
}

func badDispatch(actor, op string) error {
	return eventstreams.NewError(eventstreams.KindDispatch, op,
		fmt.Errorf("%w: operation %q not available to actor %q", eventstreams.ErrDispatch, op, actor))
}
