package models

// Kind represents the classification of a cached asset. Each kind owns one
// description table and one daily quote table in the store.
type Kind string

const (
	KindStock     Kind = "STOCK"
	KindIndex     Kind = "INDEX"
	KindETF       Kind = "ETF"
	KindCommodity Kind = "COMMODITY"
)

// Kinds returns all asset kinds in their canonical order.
func Kinds() []Kind {
	return []Kind{KindStock, KindIndex, KindETF, KindCommodity}
}

// QuoteTable returns the name of the kind's daily observation table.
// INDEX is stored in INDEXES because INDEX is an SQL keyword.
func (k Kind) QuoteTable() string {
	switch k {
	case KindIndex:
		return "INDEXES"
	case KindCommodity:
		return "COMMODITIES"
	default:
		return string(k)
	}
}

// DescTable returns the name of the kind's description table.
func (k Kind) DescTable() string {
	return k.QuoteTable() + "_DESC"
}

// KindNames returns all kinds as strings, for filter option lists.
func KindNames() []string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
