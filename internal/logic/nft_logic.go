package logic

import (
	"errors"
	"fmt"

	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// NftLogic NFT股权凭证业务逻辑
type NftLogic struct {
	db *gorm.DB
}

// NewNftLogic 创建凭证业务逻辑
func NewNftLogic(db *gorm.DB) *NftLogic {
	return &NftLogic{db: db}
}

// GetCertificate 获取凭证详情
func (l *NftLogic) GetCertificate(id string) (*model.NFTShareCertificate, error) {
	var certificate model.NFTShareCertificate
	if err := l.db.Preload("Investment").First(&certificate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("凭证不存在")
		}
		return nil, fmt.Errorf("获取凭证详情失败: %w", err)
	}
	return &certificate, nil
}

// GetOwnerCertificates 获取投资人持有的凭证
func (l *NftLogic) GetOwnerCertificates(ownerAddress string) ([]model.NFTShareCertificate, error) {
	var certificates []model.NFTShareCertificate
	if err := l.db.Where("owner_address = ?", ownerAddress).
		Order("created_at desc").Find(&certificates).Error; err != nil {
		return nil, fmt.Errorf("获取凭证列表失败: %w", err)
	}
	return certificates, nil
}

// RecordTransfer 记录链上发生的凭证转让并更新持有人
func (l *NftLogic) RecordTransfer(nftId, fromAddress, toAddress, txHash string) error {
	certificate, err := l.GetCertificate(nftId)
	if err != nil {
		return err
	}
	if certificate.OwnerAddress != fromAddress {
		return errors.New("转出地址与当前持有人不符")
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		history := &model.NFTTransferHistory{
			Id:             model.NewId(),
			NftId:          nftId,
			FromAddress:    fromAddress,
			ToAddress:      toAddress,
			TransferTxHash: txHash,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		return tx.Model(&model.NFTShareCertificate{}).Where("id = ?", nftId).Updates(map[string]interface{}{
			"owner_address":  toAddress,
			"transferred":    true,
			"transfer_count": gorm.Expr("transfer_count + 1"),
		}).Error
	})
}
