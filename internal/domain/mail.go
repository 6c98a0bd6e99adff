package domain

const (
	MailTypeCreateUser    = "create_user"
	MailTypeResetPassword = "reset_password"
	MailTypeChangeEmail   = "change_email"
	MailTypeLayoutReady   = "layout_ready"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// OTPMailData 用于重置密码和更改邮箱两种验证码邮件，Expiration 以分钟为单位
type OTPMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

// 百分比字段在投递前已格式化好，邮件模板直接展示
type LayoutReadyMailData struct {
	FullName            string `json:"fullName"`
	JobName             string `json:"jobName"`
	LayoutID            int64  `json:"layoutID"`
	Fitness             string `json:"fitness"`
	ConflictPercentage  string `json:"conflictPercentage"`
	TeamSeatPercentage  string `json:"teamSeatPercentage"`
	PriorSeatPercentage string `json:"priorSeatPercentage"`
}
