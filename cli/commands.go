package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands. Option flags
// override the values read from --config.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Config    string `help:"YAML file with ledger options." type:"existingfile" placeholder:"FILE"`

	Fiat                   string `help:"Fiat unit trades are priced in (default USD)." placeholder:"UNIT"`
	Policy                 string `help:"Lot selection policy: FIFO, LIFO or HIFO (default HIFO)." placeholder:"POLICY"`
	ForceShortTerm         *bool  `help:"Match lots held a year and a day or less as short-term (default true)." negatable:""`
	Materiality            string `help:"Suppress realizations whose absolute net is below this amount (default 0.01)." placeholder:"AMOUNT"`
	MergeCostTolerance     string `help:"Relative unit cost tolerance for merging realizations (default 0.01)." placeholder:"RATIO"`
	MergeProceedsTolerance string `help:"Relative unit proceeds tolerance for merging realizations (default 0.001)." placeholder:"RATIO"`
}

type Commands struct {
	Globals

	Realize  RealizeCmd  `cmd:"" help:"Compute realized gains and write the CSV reports."`
	Holdings HoldingsCmd `cmd:"" help:"Show the lots remaining after all sales."`
	Summary  SummaryCmd  `cmd:"" help:"Show realized gains per year and asset."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging transaction exports."`
	Web      WebCmd      `cmd:"" help:"Start a web server."`
}
