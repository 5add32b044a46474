package client

// Controller 持有当前局唯一的“当前方向”，只能通过 Set 修改
//
// 只在循环协程内使用，不加锁。
type Controller struct {
	current Direction
}

func NewController(initial Direction) *Controller {
	return &Controller{current: initial}
}

func (c *Controller) Current() Direction {
	return c.current
}

// Set 应用一次方向请求；与当前方向正好相反（或非法）时忽略并返回 false
func (c *Controller) Set(requested Direction) bool {
	if !requested.Valid() {
		return false
	}
	if requested == c.current.Opposite() {
		return false
	}
	c.current = requested
	return true
}
