package meta

// Resolve walks path through root and returns the text form of what it finds.
// Any segment that does not resolve, including the first, yields "".
func Resolve(root Value, path ...string) string {
	if len(path) == 0 {
		return ""
	}
	v, ok := root.Walk(path...)
	if !ok {
		return ""
	}
	return v.Text()
}

// Strings flattens a list of scalars into their text forms. A scalar is
// treated as a one-element list, null as empty.
func Strings(v Value) []string {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindList, KindMap:
		items := v.Items()
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Text())
		}
		return out
	}
	return []string{v.Text()}
}
