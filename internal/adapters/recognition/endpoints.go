package recognition

import (
	"context"
	"encoding/json"
	"net/http"

	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/validate"
)

const (
	pathChallenge = "/api/liveness-challenge"
	pathRegister  = "/api/register"
	pathVerify    = "/api/verify"
)

// Challenge fetches one challenge. Non-2xx replies are ErrorCodeUnavailable
// (ErrorCodeTooManyRequests for 429), undecodable bodies are ErrorCodeProtocol. An empty action list is returned as is
func (c *Client) Challenge(ctx context.Context) (ChallengeResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, pathChallenge, nil)
	if err != nil {
		return ChallengeResponse{}, err
	}
	var out ChallengeResponse
	if !resp.ok() {
		_ = json.Unmarshal(resp.body, &out)
		if out.Message != "" {
			return ChallengeResponse{}, statusErr(resp.status, "challenge endpoint status %d: %s", resp.status, out.Message)
		}
		return ChallengeResponse{}, statusErr(resp.status, "challenge endpoint status %d", resp.status)
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return ChallengeResponse{}, perr.Wrap(err, perr.ErrorCodeProtocol, "challenge response is not valid json")
	}
	return out, nil
}

// Register submits an enrollment frame with its identity and action evidence
func (c *Client) Register(ctx context.Context, in RegisterRequest) (SubmitResponse, error) {
	if err := validate.Struct(in); err != nil {
		return SubmitResponse{}, err
	}
	return c.submit(ctx, pathRegister, in)
}

// Verify submits a frame for 1:N matching with its action evidence
func (c *Client) Verify(ctx context.Context, in VerifyRequest) (SubmitResponse, error) {
	if err := validate.Struct(in); err != nil {
		return SubmitResponse{}, err
	}
	return c.submit(ctx, pathVerify, in)
}

// submit decodes both 2xx and non-2xx JSON replies into a SubmitResponse,
// since the backend reports rejections with 4xx/5xx bodies. Only a reply
// that carries no JSON at all is an error
func (c *Client) submit(ctx context.Context, path string, in any) (SubmitResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return SubmitResponse{}, err
	}
	var out SubmitResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		if !resp.ok() {
			return SubmitResponse{}, statusErr(resp.status, "%s status %d", path, resp.status)
		}
		return SubmitResponse{}, perr.Wrapf(err, perr.ErrorCodeProtocol, "%s response is not valid json", path)
	}
	if !resp.ok() {
		out.Success = false
		if out.Text() == "" {
			out.Message = http.StatusText(resp.status)
		}
	}
	return out, nil
}
