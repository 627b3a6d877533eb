package portal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout é o formato das datas aceitas nos filtros (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// DateRange é um intervalo inclusivo de dias de calendário. Extremos nulos não filtram.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Period é a forma serializada de um DateRange
type Period struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// Period devolve o intervalo formatado como YYYY-MM-DD
func (r DateRange) Period() Period {
	var p Period
	if r.Start != nil {
		s := r.Start.Format(DateLayout)
		p.StartDate = &s
	}
	if r.End != nil {
		e := r.End.Format(DateLayout)
		p.EndDate = &e
	}
	return p
}

// DateRangeSales é o resultado da consulta de vendas por período
type DateRangeSales struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	TotalSales int    `json:"total_sales"`
	Sales      []Sale `json:"sales"`
}

// ReportUseCase contém as consultas agregadas de vendas. Nunca altera estado.
type ReportUseCase struct {
	repository SaleRepository
	location   *time.Location
	now        func() time.Time
}

// NewReportUseCase cria uma nova instância de ReportUseCase.
// Os dias dos filtros são interpretados no fuso informado.
func NewReportUseCase(repository SaleRepository, location *time.Location) *ReportUseCase {
	if location == nil {
		location = time.UTC
	}
	return &ReportUseCase{
		repository: repository,
		location:   location,
		now:        time.Now,
	}
}

// ParseDate interpreta uma data YYYY-MM-DD no fuso do relatório
func (uc *ReportUseCase) ParseDate(value string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, value, uc.location)
	if err != nil {
		return time.Time{}, validationError("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day, nil
}

// Today devolve o dia corrente no fuso do relatório
func (uc *ReportUseCase) Today() time.Time {
	now := uc.now().In(uc.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, uc.location)
}

// filter converte o intervalo inclusivo de dias em [From, To) sobre sale_date
func (uc *ReportUseCase) filter(r DateRange) (SaleFilter, error) {
	var f SaleFilter
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return f, validationError("start_date must not be after end_date")
	}
	if r.Start != nil {
		from := startOfDay(*r.Start, uc.location)
		f.From = &from
	}
	if r.End != nil {
		to := startOfDay(*r.End, uc.location).AddDate(0, 0, 1)
		f.To = &to
	}
	return f, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (uc *ReportUseCase) sales(ctx context.Context, r DateRange) ([]Sale, error) {
	f, err := uc.filter(r)
	if err != nil {
		return nil, err
	}
	return uc.repository.ListSales(ctx, nil, f)
}

// TotalValue soma total_price das vendas do período
func (uc *ReportUseCase) TotalValue(ctx context.Context, r DateRange) (decimal.Decimal, error) {
	sales, err := uc.sales(ctx, r)
	if err != nil {
		return decimal.Zero, err
	}
	return Summarize(sales).TotalValue, nil
}

// Summary calcula o resumo das vendas do período
func (uc *ReportUseCase) Summary(ctx context.Context, r DateRange) (SalesSummary, error) {
	sales, err := uc.sales(ctx, r)
	if err != nil {
		return SalesSummary{}, err
	}
	return Summarize(sales), nil
}

// SalesByDateRange lista as vendas de um período fechado
func (uc *ReportUseCase) SalesByDateRange(ctx context.Context, start, end time.Time) (*DateRangeSales, error) {
	sales, err := uc.sales(ctx, DateRange{Start: &start, End: &end})
	if err != nil {
		return nil, err
	}
	return &DateRangeSales{
		StartDate:  start.Format(DateLayout),
		EndDate:    end.Format(DateLayout),
		TotalSales: len(sales),
		Sales:      sales,
	}, nil
}

// SalesToday lista as vendas do dia corrente
func (uc *ReportUseCase) SalesToday(ctx context.Context) ([]Sale, error) {
	today := uc.Today()
	return uc.sales(ctx, DateRange{Start: &today, End: &today})
}
