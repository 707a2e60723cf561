package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
)

// ContractValidator validates requests against the OpenAPI document and renders violations
// as validation problems. Mount it only on groups whose routes are all declared in the contract.
func ContractValidator(spec *openapi3.T) func(http.Handler) http.Handler {
	if spec == nil {
		panic("middleware.ContractValidator: spec must not be nil")
	}

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: writeContractProblem,
	})
}

// ValidateAuthenticationViaSwagger satisfies operations that declare bearerAuth. auth.Bearer
// has already verified the token; here we only require that it produced a principal.
func ValidateAuthenticationViaSwagger(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.SecuritySchemeName != "bearerAuth" {
		return nil
	}

	r := input.RequestValidationInput.Request
	if r == nil {
		return errors.New("no request in validation input")
	}
	if _, ok := platformauth.PrincipalFrom(r.Context()); !ok {
		return errors.New("missing or invalid Authorization header")
	}
	return nil
}

func writeContractProblem(w http.ResponseWriter, message string, statusCode int) {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		httpx.Unauthorized(w, message)
	case http.StatusNotFound:
		httpx.WriteProblem(w, httpx.NewProblem(http.StatusNotFound, httpx.ProblemTypeNotFound, "Not Found", message, nil))
	default:
		httpx.WriteProblem(w, httpx.NewProblem(http.StatusBadRequest, httpx.ProblemTypeValidation, "Validation Failed", message, nil))
	}
}
