package mountfs

// Merge composes two stores. Open tries Primary first and, on any error,
// returns whatever Fallback produces for the same name. The error from
// Primary is discarded.
type Merge struct {
	Primary  Store
	Fallback Store
}

func (m Merge) Open(name string) (File, error) {
	if f, err := m.Primary.Open(name); err == nil {
		return f, nil
	}
	return m.Fallback.Open(name)
}

// MergeAll merges stores in descending priority: the first store wins
// whenever it can open a name. The result is the right fold
//
//	Merge{first, Merge{rest[0], ... Merge{rest[n-1], Empty{}}}}
//
// so a name found nowhere always ends in Empty's not-found error.
func MergeAll(first Store, rest ...Store) Store {
	var chain Store = Empty{}
	for i := len(rest) - 1; i >= 0; i-- {
		chain = Merge{Primary: rest[i], Fallback: chain}
	}
	return Merge{Primary: first, Fallback: chain}
}
