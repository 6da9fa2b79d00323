package api

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"shownames/internal/jsonrpc"
)

// Dispatch executes one JSON-RPC request against the service
func (s *Service) Dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	if err := req.Validate(); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidRequest.Wrap(err))
	}

	var (
		result interface{}
		err    error
	)

	switch req.Method {
	case jsonrpc.MethodDecorate:
		var params DecorateParams
		if err := req.DecodeParams(&params); err != nil {
			return invalidParams(req, err)
		}
		result, err = s.Decorate(ctx, params)
	case jsonrpc.MethodRestore:
		var params RestoreParams
		if err := req.DecodeParams(&params); err != nil {
			return invalidParams(req, err)
		}
		result, err = s.Restore(ctx, params)
	case jsonrpc.MethodCardUsernames:
		var params RestoreParams
		if err := req.DecodeParams(&params); err != nil {
			return invalidParams(req, err)
		}
		result, err = s.CardUsernames(ctx, params)
	case jsonrpc.MethodResolve:
		var params ResolveParams
		if err := req.DecodeParams(&params); err != nil {
			return invalidParams(req, err)
		}
		result, err = s.Resolve(ctx, params)
	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrMethodNotFound)
	}

	if err != nil {
		if errors.Is(err, ErrUsernameRequired) {
			return invalidParams(req, err)
		}
		s.logger.Warn().Err(err).Str("method", req.Method).Msg("request failed")
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeServerError, err.Error()))
	}

	resp, err := jsonrpc.NewResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInternal)
	}
	return resp
}

// DispatchBatch executes requests concurrently so their lookups can share
// search batches. Responses keep the request order.
func (s *Service) DispatchBatch(ctx context.Context, reqs []*jsonrpc.Request) []*jsonrpc.Response {
	responses := make([]*jsonrpc.Response, len(reqs))

	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			responses[i] = s.Dispatch(ctx, req)
			return nil
		})
	}
	g.Wait()

	return responses
}

func invalidParams(req *jsonrpc.Request, err error) *jsonrpc.Response {
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidParams.Wrap(err))
}
