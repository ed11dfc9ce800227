package reserved

import "github.com/mesh-intelligence/nameward/pkg/types"

// Built-in categories.
const (
	CategoryGovernance  = "governance"
	CategoryProtocol    = "protocol"
	CategoryService     = "service"
	CategorySecurity    = "security"
	CategoryContent     = "content"
	CategoryEnvironment = "environment"
	CategoryRelease     = "release"
)

func exact(word string, tier types.Priority, category string) types.ReservedWord {
	return types.ReservedWord{Word: word, Kind: types.MatchExact, Tier: tier, Category: category}
}

func prefix(word string, tier types.Priority, category string) types.ReservedWord {
	return types.ReservedWord{Word: word, Kind: types.MatchPrefix, Tier: tier, Category: category}
}

func suffix(word string, tier types.Priority, category string) types.ReservedWord {
	return types.ReservedWord{Word: word, Kind: types.MatchSuffix, Tier: tier, Category: category}
}

// builtInEntries are loaded into every new registry. Owner-category entries
// cannot be removed.
var builtInEntries = []types.ReservedWord{
	exact("admin", types.PriorityCritical, types.CategoryOwner),
	exact("owner", types.PriorityCritical, types.CategoryOwner),
	exact("root", types.PriorityCritical, types.CategoryOwner),
	exact("governance", types.PriorityCritical, CategoryGovernance),
	exact("treasury", types.PriorityCritical, CategoryGovernance),
	exact("dao", types.PriorityCritical, CategoryGovernance),
	exact("system", types.PriorityCritical, CategoryProtocol),
	exact("registry", types.PriorityCritical, CategoryProtocol),
	exact("resolver", types.PriorityCritical, CategoryProtocol),
	exact("ens", types.PriorityCritical, CategoryProtocol),

	exact("api", types.PriorityHigh, CategoryService),
	exact("app", types.PriorityHigh, CategoryService),
	exact("www", types.PriorityHigh, CategoryService),
	exact("mail", types.PriorityHigh, CategoryService),
	exact("support", types.PriorityHigh, CategoryService),
	exact("token", types.PriorityHigh, CategoryService),
	exact("wallet", types.PriorityHigh, CategoryService),
	exact("bridge", types.PriorityHigh, CategoryService),
	exact("security", types.PriorityHigh, CategorySecurity),
	exact("vault", types.PriorityHigh, CategorySecurity),

	exact("blog", types.PriorityMedium, CategoryContent),
	exact("docs", types.PriorityMedium, CategoryContent),
	exact("forum", types.PriorityMedium, CategoryContent),
	exact("news", types.PriorityMedium, CategoryContent),
	exact("status", types.PriorityMedium, CategoryContent),
	exact("dev", types.PriorityMedium, CategoryEnvironment),
	exact("test", types.PriorityMedium, CategoryEnvironment),
	exact("staging", types.PriorityMedium, CategoryEnvironment),

	exact("alpha", types.PriorityLow, CategoryRelease),
	exact("beta", types.PriorityLow, CategoryRelease),
	exact("demo", types.PriorityLow, CategoryRelease),
	exact("info", types.PriorityLow, CategoryContent),

	prefix("admin-", types.PriorityCritical, types.CategoryOwner),
	prefix("gov-", types.PriorityCritical, CategoryGovernance),
	prefix("sys-", types.PriorityHigh, CategoryProtocol),
	prefix("xn--", types.PriorityHigh, CategorySecurity),

	suffix("-admin", types.PriorityCritical, types.CategoryOwner),
	suffix("-official", types.PriorityHigh, CategorySecurity),
	suffix("-team", types.PriorityMedium, CategoryService),
}
