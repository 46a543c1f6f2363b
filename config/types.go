package config

type AppConfig struct {
	DBDriver   string `yaml:"db_driver" env:"COCINA_DB_DRIVER" env-default:"sqlite"`
	DBURL      string `yaml:"db_url" env:"COCINA_DB_URL"`
	DBPath     string `yaml:"db_path" env:"COCINA_DB_PATH" env-default:"data/cocina.db"`
	ListenAddr string `yaml:"listen_addr" env:"COCINA_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	AppEnv     string `yaml:"app_env" env:"COCINA_APP_ENV"`

	Rosters   RostersConfig    `yaml:"rosters"`
	Directory []DirectoryEntry `yaml:"directory"`
	Digest    DigestConfig     `yaml:"digest"`
}

type RostersConfig struct {
	Sellers    []string `yaml:"sellers" env:"COCINA_SELLERS" env-separator:","`
	Installers []string `yaml:"installers" env:"COCINA_INSTALLERS" env-separator:","`
}

// DirectoryEntry maps an LDAP identifier to a display name and role.
// Roles in use: Vendedor, Manager, CPC.
type DirectoryEntry struct {
	LDAP string `yaml:"ldap" json:"ldap"`
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role"`
}

type DigestConfig struct {
	Enabled  bool   `yaml:"enabled" env:"COCINA_DIGEST_ENABLED" env-default:"true"`
	Schedule string `yaml:"schedule" env:"COCINA_DIGEST_SCHEDULE" env-default:"0 7 * * *"`
}

// ApplyDefaults fills the roster and directory sections when the config file
// left them empty. Slice defaults cannot be expressed with env-default tags.
func (c *AppConfig) ApplyDefaults() {
	if len(c.Rosters.Sellers) == 0 {
		c.Rosters.Sellers = []string{"Lara", "Maybeth", "Raquel"}
	}
	if len(c.Rosters.Installers) == 0 {
		c.Rosters.Installers = []string{"Instalador A", "Instalador B", "Instalador C", "Instalador D"}
	}
	if len(c.Directory) == 0 {
		c.Directory = []DirectoryEntry{
			{LDAP: "30000001", Name: "Lara", Role: "Vendedor"},
			{LDAP: "30000002", Name: "Maybeth", Role: "Vendedor"},
			{LDAP: "30000003", Name: "Raquel", Role: "Vendedor"},
			{LDAP: "30104750", Name: "Javi", Role: "Manager"},
			{LDAP: "30000004", Name: "Juanan", Role: "CPC"},
		}
	}
}
