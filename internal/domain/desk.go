package domain

import "time"

type Desk struct {
	ID        int64     `json:"id"`
	Row       int32     `json:"row"`
	Col       int32     `json:"col"`
	Team      int32     `json:"team"` // 0 表示公共座位
	Index     int32     `json:"index"`
	CreatedAt time.Time `json:"createdAt"`
}
