package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"helios/contexts/proposal-core/financial-engine/application"
	"helios/contexts/proposal-core/financial-engine/domain/entities"
	"helios/contexts/proposal-core/financial-engine/ports"
	httptransport "helios/contexts/proposal-core/financial-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GenerateHandler(
	ctx context.Context,
	userID string,
	proposalID string,
	idempotencyKey string,
	req httptransport.GenerateRequest,
) (httptransport.GenerateResponse, error) {
	if idempotencyKey == "" {
		idempotencyKey = req.IdempotencyKey
	}
	output, err := h.Service.Generate(ctx, userID, toInput(proposalID, idempotencyKey, req))
	if err != nil {
		return httptransport.GenerateResponse{}, err
	}
	return httptransport.GenerateResponse{
		Success:        true,
		Idempotent:     output.Idempotent,
		ProposalID:     output.ProposalID,
		VersionID:      output.VersionID,
		VersionNumber:  output.VersionNumber,
		TotalValue:     output.TotalValue,
		PaybackMonths:  output.PaybackMonths,
		PaybackYears:   output.PaybackYears,
		MonthlySavings: output.MonthlySavings,
		NPV:            output.NPV,
		IRR:            output.IRR,
		EngineVersion:  output.EngineVersion,
		CalcHash:       output.CalcHash,
		ScenarioCount:  output.ScenarioCount,
	}, nil
}

func (h Handler) ListVersionsHandler(
	ctx context.Context,
	userID string,
	proposalID string,
) (httptransport.ListVersionsResponse, error) {
	versions, err := h.Service.ListVersions(ctx, userID, proposalID)
	if err != nil {
		return httptransport.ListVersionsResponse{}, err
	}
	resp := httptransport.ListVersionsResponse{
		Success: true,
		Data:    make([]httptransport.VersionHeaderDTO, 0, len(versions)),
	}
	for _, version := range versions {
		resp.Data = append(resp.Data, toHeaderDTO(version))
	}
	return resp, nil
}

func (h Handler) GetVersionHandler(
	ctx context.Context,
	userID string,
	versionID string,
) (httptransport.GetVersionResponse, error) {
	version, err := h.Service.GetVersion(ctx, userID, versionID)
	if err != nil {
		return httptransport.GetVersionResponse{}, err
	}
	return httptransport.GetVersionResponse{
		Success:  true,
		Version:  toHeaderDTO(version),
		Snapshot: version.Snapshot,
	}, nil
}

func toInput(proposalID string, idempotencyKey string, req httptransport.GenerateRequest) ports.GenerateInput {
	points := make([]entities.ConsumptionPoint, 0, len(req.ConsumptionPoints))
	for _, point := range req.ConsumptionPoints {
		points = append(points, entities.ConsumptionPoint{
			Ref:                   point.Ref,
			UtilityCode:           point.UtilityCode,
			Jurisdiction:          point.Jurisdiction,
			SubGroup:              point.SubGroup,
			MonthlyConsumptionKWh: point.MonthlyConsumptionKWh,
		})
	}
	kit := make([]entities.KitItem, 0, len(req.KitItems))
	for _, item := range req.KitItems {
		kit = append(kit, entities.KitItem{
			Description: item.Description,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
		})
	}
	services := make([]entities.ServiceItem, 0, len(req.Services))
	for _, svc := range req.Services {
		services = append(services, entities.ServiceItem{
			Description: svc.Description,
			Cost:        svc.Cost,
		})
	}
	scenarios := make([]entities.Scenario, 0, len(req.Scenarios))
	for _, scenario := range req.Scenarios {
		scenarios = append(scenarios, entities.Scenario{
			Type:                entities.ScenarioType(scenario.Type),
			Principal:           scenario.Principal,
			DownPayment:         scenario.DownPayment,
			MonthlyInterestRate: scenario.MonthlyInterestRate,
			InstallmentCount:    scenario.InstallmentCount,
			InstallmentAmount:   scenario.InstallmentAmount,
			FinancierRef:        scenario.FinancierRef,
		})
	}
	var premises *entities.Premises
	if req.Premises != nil {
		premises = &entities.Premises{
			RoofType:        req.Premises.RoofType,
			Structure:       req.Premises.Structure,
			Orientation:     req.Premises.Orientation,
			AvailableAreaM2: req.Premises.AvailableAreaM2,
		}
	}
	return ports.GenerateInput{
		ProposalID:        proposalID,
		LeadRef:           req.LeadID,
		ProjectRef:        req.ProjectRef,
		ClientRef:         req.ClientRef,
		TemplateRef:       req.TemplateRef,
		TariffGroupHint:   req.TariffGroup,
		InstalledPowerKWp: req.InstalledPowerKWp,
		AvgTariff:         req.AvgTariff,
		ConsumptionPoints: points,
		Premises:          premises,
		KitItems:          kit,
		Services:          services,
		Commercial: entities.CommercialTerms{
			CommissionPct: req.Commercial.CommissionPct,
			OtherCosts:    req.Commercial.OtherCosts,
			MarginPct:     req.Commercial.MarginPct,
			DiscountPct:   req.Commercial.DiscountPct,
		},
		Scenarios:           scenarios,
		Notes:               req.Notes,
		IdempotencyKey:      idempotencyKey,
		SkipCustomVariables: req.SkipCustomVariables,
		EstimateAccepted:    req.AceiteEstimativa,
	}
}

func toHeaderDTO(version entities.Version) httptransport.VersionHeaderDTO {
	return httptransport.VersionHeaderDTO{
		VersionID:     version.VersionID,
		ProposalID:    version.ProposalID,
		VersionNumber: version.VersionNumber,
		CalcHash:      version.CalcHash,
		EngineVersion: version.EngineVersion,
		Status:        string(version.Status),
		CreatedAt:     version.CreatedAt.UTC().Format(time.RFC3339),
	}
}
