package model

import "math/big"

// BirrPerShare 每股对应的出资额（ETB）。股份数和投票权必须共用该比例。
const BirrPerShare int64 = 1000

// SharesForAmount 根据出资额计算股份数
func SharesForAmount(amount int64) int64 {
	return amount / BirrPerShare
}

// VotingPowerForAmount 根据出资额计算投票权（1票每1000 ETB）
func VotingPowerForAmount(amount int64) int64 {
	return amount / BirrPerShare
}

var weiPerBirr = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ToWei 将ETB金额转换为wei
func ToWei(amount int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(amount), weiPerBirr)
}
