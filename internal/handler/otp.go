package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/utils"
)

type otpPurpose string

const (
	otpResetPassword otpPurpose = "reset_password"
	otpChangeEmail   otpPurpose = "change_email"
)

// otpKey 生成验证码在 redis 中的键，更改邮箱的验证码需要和新邮箱绑定
func otpKey(purpose otpPurpose, username, target string) string {
	if target == "" {
		return fmt.Sprintf("otp_%s_%s", username, purpose)
	}
	return fmt.Sprintf("otp_%s_%s_to_%s", username, purpose, target)
}

func (h *Handler) redisContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
}

// issueOTP 生成验证码并保存到 redis，返回值可以直接作为验证码邮件的内容
func (h *Handler) issueOTP(ctx context.Context, key string, user *domain.User) (domain.OTPMailData, error) {
	otp := utils.GenerateRandomOTP()

	ctx, cancel := h.redisContext(ctx)
	defer cancel()

	if err := h.redisClient.Set(ctx, key, otp, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
		return domain.OTPMailData{}, err
	}

	return domain.OTPMailData{
		FullName:   user.FullName,
		OTP:        otp,
		Expiration: h.config.OTP.Expiration / 60, // 配置以秒为单位
	}, nil
}

// verifyOTP 只有 redis 本身出错时才返回 error，验证码过期或不存在都视为不匹配
func (h *Handler) verifyOTP(ctx context.Context, key, otp string) (bool, error) {
	ctx, cancel := h.redisContext(ctx)
	defer cancel()

	stored, err := h.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return stored == otp, nil
}

func (h *Handler) clearOTP(ctx context.Context, key string) error {
	ctx, cancel := h.redisContext(ctx)
	defer cancel()

	return h.redisClient.Del(ctx, key).Err()
}
