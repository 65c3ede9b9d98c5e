package settlement

// DefaultFeeBps 默认平台抽成 5%
const DefaultFeeBps = 500

const bpsDenominator = 10000

// Payout 奖金明细，单位为最小货币单位
type Payout struct {
	Pool        int64 `json:"pool"`
	PlatformFee int64 `json:"platform_fee"`
	WinnerShare int64 `json:"winner_share"`
	FeeBps      int64 `json:"fee_bps"`
}

// ComputePayout fee = pool × bps / 10000（向下取整），赢家拿剩下的全部
func ComputePayout(pool, feeBps int64) Payout {
	fee := pool * feeBps / bpsDenominator
	return Payout{
		Pool:        pool,
		PlatformFee: fee,
		WinnerShare: pool - fee,
		FeeBps:      feeBps,
	}
}
