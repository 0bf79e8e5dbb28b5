package query

// ---------- Paginación ----------

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// OffsetPagination para paginación clásica
type OffsetPagination struct {
	Limit  int
	Offset int
}

// NewOffsetPagination normaliza los valores recibidos: limit <= 0 pasa a DefaultLimit,
// limit por encima de MaxLimit se recorta y un offset negativo pasa a 0.
func NewOffsetPagination(limit, offset int) OffsetPagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return OffsetPagination{Limit: limit, Offset: offset}
}
