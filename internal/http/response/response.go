// Package response contém os tipos e funções para formar as respostas
// JSON unificadas dos handlers HTTP: sucesso, erro e erros de validação
// em um único formato.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response estrutura padrão da resposta JSON do servidor.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse estrutura de erro usada na documentação Swagger.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// UpstreamErrorResponse envelope de erro com os dados originais de um
// colaborador externo (código e corpo do processador de pagamentos).
type UpstreamErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const (
	// StatusOK valor do status em respostas de sucesso.
	StatusOK = "OK"
	// StatusError valor do status em respostas de erro.
	StatusError = "Error"
)

// OKWithData retorna um Response de sucesso com os dados informados.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error retorna um ErrorResponse com a mensagem informada.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// UpstreamError retorna o envelope de erro com os detalhes originais do
// colaborador externo.
func UpstreamError(msg, details string) UpstreamErrorResponse {
	return UpstreamErrorResponse{
		Success: false,
		Error:   msg,
		Details: details,
	}
}

// ValidationError forma um Response de erro a partir das violações de
// validação, cada uma convertida em texto legível.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s does not have enough items", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
