package cache

import "fmt"

type EntityType string

const (
	EntityFeeProfile EntityType = "fee_profile"
)

type KeyType string

const (
	KeyMerchant KeyType = "merchant"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}
