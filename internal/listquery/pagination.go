package listquery

type Correction struct {
	EffectivePage int
	NeedsRedirect bool
}

// LastPage is max(1, ceil(total/limit)).
func LastPage(total, limit int) int {
	if limit < 1 || total < 1 {
		return 1
	}
	return (total + limit - 1) / limit
}

// Correct reports a redirect to the last page when page lies past the end of
// a non-empty result set.
func Correct(total, page, limit int) Correction {
	if limit < 1 {
		limit = 1
	}
	if total > 0 && total < Offset(page, limit)+1 {
		return Correction{EffectivePage: LastPage(total, limit), NeedsRedirect: true}
	}
	return Correction{EffectivePage: page}
}

// Clamp keeps page within [1, LastPage(total, limit)].
func Clamp(total, page, limit int) int {
	if page < 1 {
		return 1
	}
	if last := LastPage(total, limit); page > last {
		return last
	}
	return page
}
