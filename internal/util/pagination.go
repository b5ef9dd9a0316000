package util

const defaultPageSize = 20

// Paginate turns 1-based page/size query values into offset/limit,
// clamping size to a sane window.
func Paginate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = defaultPageSize
	}
	return (page - 1) * size, size
}
