package pdf

import "fieldquote/quotesync/internal/domain/quote"

type Generator interface {
	Generate(q quote.Detail) ([]byte, error)
}
