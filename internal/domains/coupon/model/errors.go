package model

import "errors"

var ErrCouponNotFound = errors.New("coupon not found")
