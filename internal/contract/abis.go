package contract

// 合约名称常量
const (
	ContractIssuerRegistry  = "issuer_registry"
	ContractCampaignFactory = "campaign_factory"
	ContractCampaign        = "campaign_implementation"
	ContractNFTCertificate  = "nft_certificate"
)

// 内嵌ABI定义，避免运行时读文件
var contractABIs = map[string]string{
	ContractIssuerRegistry:  issuerRegistryABI,
	ContractCampaignFactory: campaignFactoryABI,
	ContractCampaign:        campaignImplementationABI,
	ContractNFTCertificate:  nftCertificateABI,
}

const issuerRegistryABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "issuer", "type": "address"},
			{"internalType": "string", "name": "vcHash", "type": "string"},
			{"internalType": "string", "name": "ipfsHash", "type": "string"}
		],
		"name": "registerIssuer",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "issuer", "type": "address"}],
		"name": "isRegisteredIssuer",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "issuer", "type": "address"}],
		"name": "canIssuerStartCampaign",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "issuer", "type": "address"},
			{"indexed": false, "internalType": "string", "name": "vcHash", "type": "string"},
			{"indexed": false, "internalType": "string", "name": "ipfsHash", "type": "string"},
			{"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
		],
		"name": "IssuerRegistered",
		"type": "event"
	}
]`

const campaignFactoryABI = `[
	{
		"inputs": [
			{"internalType": "string", "name": "campaignId", "type": "string"},
			{"internalType": "string", "name": "companyName", "type": "string"},
			{"internalType": "string", "name": "description", "type": "string"},
			{"internalType": "uint256", "name": "fundingGoal", "type": "uint256"},
			{"internalType": "uint256", "name": "duration", "type": "uint256"},
			{"internalType": "string", "name": "documentHash", "type": "string"}
		],
		"name": "createCampaign",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "string", "name": "", "type": "string"}],
		"name": "campaignIdToAddress",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "address", "name": "campaignAddress", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
			{"indexed": false, "internalType": "string", "name": "campaignId", "type": "string"},
			{"indexed": false, "internalType": "string", "name": "companyName", "type": "string"},
			{"indexed": false, "internalType": "uint256", "name": "fundingGoal", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "CampaignCreated",
		"type": "event"
	}
]`

const campaignImplementationABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "investor", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "string", "name": "paymentMethod", "type": "string"},
			{"internalType": "string", "name": "transactionRef", "type": "string"}
		],
		"name": "recordInvestment",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "releaseFunds",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "refund",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "investor", "type": "address"}],
		"name": "refundInvestor",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalRaised",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "fundingGoal",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "deadline",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "completed",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getInvestors",
		"outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "investor", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": false, "internalType": "string", "name": "paymentMethod", "type": "string"},
			{"indexed": false, "internalType": "string", "name": "transactionRef", "type": "string"}
		],
		"name": "InvestmentMade",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "platformFee", "type": "uint256"}
		],
		"name": "FundsReleased",
		"type": "event"
	}
]`

const nftCertificateABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "string", "name": "campaignId", "type": "string"},
			{"internalType": "string", "name": "companyName", "type": "string"},
			{"internalType": "uint256", "name": "investmentAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "shareCount", "type": "uint256"},
			{"internalType": "string", "name": "tokenURI", "type": "string"}
		],
		"name": "issueCertificate",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "from", "type": "address"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "tokenId", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "ownerCertificates",
		"outputs": [{"internalType": "uint256[]", "name": "", "type": "uint256[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
			{"indexed": false, "internalType": "string", "name": "campaignId", "type": "string"},
			{"indexed": false, "internalType": "uint256", "name": "investmentAmount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "shareCount", "type": "uint256"}
		],
		"name": "CertificateIssued",
		"type": "event"
	}
]`
