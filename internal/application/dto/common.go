package dto

// PageRequest paginación para listados (1-based).
type PageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// DefaultPage aplica valores por defecto y límites.
func (p *PageRequest) DefaultPage() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Offset calcula el offset SQL de la página.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta metadatos de página en respuestas de listado.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva el detalle estructurado
// (ej. lista de ítems sin stock) cuando aplica.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
