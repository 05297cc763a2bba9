package services

import (
	"context"
	"log"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/errs"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/utils"
)

// Deployer — deployment strategy, chosen once at construction. Business code
// never branches on live-vs-mock; Mode is informational (health, logs).
type Deployer interface {
	Deploy(ctx context.Context, params models.DeployParams) (*models.DeploymentResult, error)
	Mode() string
}

// DeployService validates parameters before any ledger traffic and delegates
// the actual creation to the configured strategy.
type DeployService struct {
	deployer Deployer
}

func NewDeployService(deployer Deployer) *DeployService {
	return &DeployService{deployer: deployer}
}

func (s *DeployService) Mode() string { return s.deployer.Mode() }

func (s *DeployService) DeployToken(ctx context.Context, p models.DeployParams) (*models.DeploymentResult, error) {
	if err := validateDeployParams(p); err != nil {
		return nil, err
	}

	result, err := s.deployer.Deploy(ctx, p)
	if err != nil {
		return nil, err
	}
	log.Printf("[deploy] mode=%s name=%s symbol=%s proxy=%s tx=%s",
		s.deployer.Mode(), p.Name, p.Symbol, result.ProxyAddress, result.TxHash)
	return result, nil
}

func validateDeployParams(p models.DeployParams) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"symbol", p.Symbol},
		{"masterMinter", p.MasterMinter},
		{"pauser", p.Pauser},
		{"blacklister", p.Blacklister},
		{"owner", p.Owner},
	}
	for _, f := range fields {
		if f.value == "" {
			return errs.Validation("Missing field: %s", f.name)
		}
	}
	for _, addr := range []string{p.MasterMinter, p.Pauser, p.Blacklister, p.Owner} {
		if !utils.IsHexAddress(addr) {
			return errs.Validation("Invalid address provided")
		}
	}
	return nil
}

// LiveDeployer submits through the factory and recovers the created
// addresses from the TokenDeployed event in the mined receipt.
type LiveDeployer struct {
	factory TokenFactory
}

func NewLiveDeployer(factory TokenFactory) *LiveDeployer {
	return &LiveDeployer{factory: factory}
}

func (d *LiveDeployer) Mode() string { return "live" }

func (d *LiveDeployer) Deploy(ctx context.Context, p models.DeployParams) (*models.DeploymentResult, error) {
	receipt, err := d.factory.DeployToken(ctx, p)
	if err != nil {
		return nil, err
	}

	for _, entry := range receipt.Logs {
		if entry.Event != "TokenDeployed" {
			continue
		}
		return &models.DeploymentResult{
			ProxyAddress:          entry.Args["token"],
			ImplementationAddress: entry.Args["proxy"],
			TxHash:                receipt.Hash,
			GasUsed:               receipt.GasUsed,
		}, nil
	}
	return nil, errs.Protocol("TokenDeployed event not found in receipt %s", receipt.Hash)
}

// SyntheticDeployer fabricates addresses from a crypto-strong source.
// Used when on-chain submission is not configured; callers can tell the
// difference through Mode and must never treat its output as settled.
type SyntheticDeployer struct{}

func NewSyntheticDeployer() *SyntheticDeployer { return &SyntheticDeployer{} }

func (d *SyntheticDeployer) Mode() string { return "mock" }

func (d *SyntheticDeployer) Deploy(_ context.Context, p models.DeployParams) (*models.DeploymentResult, error) {
	proxy, err := utils.NewHexAddress()
	if err != nil {
		return nil, err
	}
	impl, err := utils.NewHexAddress()
	if err != nil {
		return nil, err
	}
	txHash, err := utils.NewTxHash()
	if err != nil {
		return nil, err
	}
	log.Printf("[deploy][mock] name=%s symbol=%s", p.Name, p.Symbol)
	return &models.DeploymentResult{
		ProxyAddress:          proxy,
		ImplementationAddress: impl,
		TxHash:                txHash,
		GasUsed:               "21000",
	}, nil
}
