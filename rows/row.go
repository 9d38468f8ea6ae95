package rows

type Row interface {
	IndexOf(idx int) interface{}
	Len() int
}

func New(data []interface{}) Row {
	return &genericRow{
		data: data,
	}
}

type genericRow struct {
	data []interface{}
}

func (r *genericRow) IndexOf(idx int) interface{} {
	return r.data[idx]
}

func (r *genericRow) Len() int {
	return len(r.data)
}

// Values copies the row into a plain slice.
func Values(r Row) []interface{} {
	result := make([]interface{}, r.Len())
	for i := range result {
		result[i] = r.IndexOf(i)
	}
	return result
}
