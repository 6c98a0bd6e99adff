package seating

import "errors"

var (
	ErrInvalidGeometry = errors.New("座位坐标不合法")
	ErrInvalidTeam     = errors.New("团队编号不合法")
	ErrUnsetFitness    = errors.New("染色体的适应度尚未计算")
	ErrNegativeFitness = errors.New("适应度不能为负数")
	ErrSelfConflict    = errors.New("员工不能与自己冲突")
	ErrNotEnoughDesks  = errors.New("座位数量少于员工数量")
	ErrOddPopulation   = errors.New("种群大小必须为偶数")
	ErrCorruptLayout   = errors.New("历史座位表数据损坏")
)
