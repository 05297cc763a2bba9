package models

// DeployParams — the six token creation parameters. All required;
// the four role fields must be well-formed addresses.
type DeployParams struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	MasterMinter string `json:"masterMinter"`
	Pauser       string `json:"pauser"`
	Blacklister  string `json:"blacklister"`
	Owner        string `json:"owner"`
}

// DeploymentResult — transient, returned to the caller, never persisted.
type DeploymentResult struct {
	ProxyAddress          string `json:"proxy"`
	ImplementationAddress string `json:"implementation"`
	TxHash                string `json:"txHash"`
	GasUsed               string `json:"gasUsed"`
}
