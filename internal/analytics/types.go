package analytics

// PeriodStats holds the headline numbers for one period
type PeriodStats struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	TotalGuests       int     `json:"totalGuests"`
	UniqueCustomers   int     `json:"uniqueCustomers"`
}

// StatsChanges holds percentage deltas against the previous period.
// A nil value means the previous period had nothing to compare against.
type StatsChanges struct {
	Orders            *float64 `json:"orders"`
	Revenue           *float64 `json:"revenue"`
	AverageOrderValue *float64 `json:"averageOrderValue"`
	Guests            *float64 `json:"guests"`
	Customers         *float64 `json:"customers"`
}

// BasicStats compares the requested period with the one right before it
type BasicStats struct {
	Period   Period       `json:"period"`
	Current  PeriodStats  `json:"current"`
	Previous PeriodStats  `json:"previous"`
	Changes  StatsChanges `json:"changes"`
}

// TrendData is one time bucket of a revenue trend
type TrendData struct {
	Period            string  `json:"period"`
	Date              string  `json:"date"`
	FormattedDate     string  `json:"formattedDate"`
	OrderCount        int     `json:"orderCount"`
	Revenue           float64 `json:"revenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	CustomerCount     int     `json:"customerCount"`
}

// ProductStat aggregates every sold line of one product name
type ProductStat struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	TotalQuantity   int     `json:"totalQuantity"`
	TotalRevenue    float64 `json:"totalRevenue"`
	OrderCount      int     `json:"orderCount"`
	AveragePrice    float64 `json:"averagePrice"`
	UniqueCustomers int     `json:"uniqueCustomers"`
}

// CategoryStat is the rollup of products for one base-spirit category
type CategoryStat struct {
	Category      string   `json:"category"`
	ProductCount  int      `json:"productCount"`
	TotalQuantity int      `json:"totalQuantity"`
	TotalRevenue  float64  `json:"totalRevenue"`
	Percentage    float64  `json:"percentage"`
	Products      []string `json:"products"`
}

// ProductAnalysis is the result of GetProductAnalysis
type ProductAnalysis struct {
	Products      []ProductStat  `json:"products"`
	Categories    []CategoryStat `json:"categories"`
	TotalProducts int            `json:"totalProducts"`
	TotalQuantity int            `json:"totalQuantity"`
	TotalRevenue  float64        `json:"totalRevenue"`
}

// TableStat aggregates the orders served at one table
type TableStat struct {
	TableNumber       int     `json:"tableNumber"`
	OrderCount        int     `json:"orderCount"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	UniqueCustomers   int     `json:"uniqueCustomers"`
	TotalGuests       int     `json:"totalGuests"`
	UtilizationRate   float64 `json:"utilizationRate"`
}

// RevenueShare is a table's slice of the total revenue
type RevenueShare struct {
	TableNumber int     `json:"tableNumber"`
	Revenue     float64 `json:"revenue"`
	Percentage  float64 `json:"percentage"`
}

// SeatingAnalysis is the result of GetSeatingAnalysis
type SeatingAnalysis struct {
	Tables                 []TableStat    `json:"tables"`
	RevenueDistribution    []RevenueShare `json:"revenueDistribution"`
	TotalTables            int            `json:"totalTables"`
	AverageRevenuePerTable float64        `json:"averageRevenuePerTable"`
	BusiestTable           *int           `json:"busiestTable"`
}

// RFMAnalysis is the raw recency/frequency/monetary profile of a customer
type RFMAnalysis struct {
	CustomerID string  `json:"customerId"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
	Score      string  `json:"score"`
}

// CustomerProfile is an RFM row enriched with segment and lifetime value
type CustomerProfile struct {
	RFMAnalysis
	Segment       CustomerSegment `json:"segment"`
	LifetimeValue float64         `json:"lifetimeValue"`
	FirstOrderAt  string          `json:"firstOrderAt"`
	LastOrderAt   string          `json:"lastOrderAt"`
}

// SegmentSummary counts the customers that fall into one segment
type SegmentSummary struct {
	Segment    CustomerSegment `json:"segment"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
	Revenue    float64         `json:"revenue"`
}

// CustomerAnalysis is the result of GetCustomerAnalysis
type CustomerAnalysis struct {
	TotalCustomers     int               `json:"totalCustomers"`
	NewCustomers       int               `json:"newCustomers"`
	ReturningCustomers int               `json:"returningCustomers"`
	RetentionRate      float64           `json:"retentionRate"`
	AverageCLV         float64           `json:"averageClv"`
	Segments           []SegmentSummary  `json:"segments"`
	Customers          []CustomerProfile `json:"customers"`
	TopCustomers       []CustomerProfile `json:"topCustomers"`
}

// TimeSlot is one hour-of-day or day-of-week bucket
type TimeSlot struct {
	Index             int     `json:"index"`
	Label             string  `json:"label"`
	OrderCount        int     `json:"orderCount"`
	Revenue           float64 `json:"revenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// TimeAnalysis is the result of GetTimeAnalysis
type TimeAnalysis struct {
	Hourly    []TimeSlot `json:"hourly"`
	Weekly    []TimeSlot `json:"weekly"`
	PeakHours []TimeSlot `json:"peakHours"`
	PeakDays  []TimeSlot `json:"peakDays"`
}
