package chain

// ABI fragments for the external contracts the suite calls into. Payments
// travel as (tokenId, nonce, amount) tuples everywhere.

const feesCollectorABI = `[
  {"name":"claimRewards","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"user","type":"address"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"payments","type":"tuple[]"}]}
]`

const metabondingABI = `[
  {"name":"claimRewards","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"user","type":"address"},
     {"components":[{"name":"week","type":"uint64"},{"name":"delegationAmount","type":"uint256"},{"name":"lkmexAmount","type":"uint256"},{"name":"signature","type":"bytes"}],"name":"claims","type":"tuple[]"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"payments","type":"tuple[]"}]}
]`

const farmABI = `[
  {"name":"config","type":"function","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"farmTokenId","type":"string"},{"name":"farmingTokenId","type":"string"},{"name":"active","type":"bool"}]},
  {"name":"claimRewards","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"user","type":"address"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"farmToken","type":"tuple"}],
   "outputs":[
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"newFarmToken","type":"tuple"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"reward","type":"tuple"}]},
  {"name":"enterFarm","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"user","type":"address"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"input","type":"tuple"}],
   "outputs":[
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"newFarmToken","type":"tuple"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"leftover","type":"tuple"}]},
  {"name":"exitFarm","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"amount","type":"uint256"},
     {"name":"user","type":"address"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"farmToken","type":"tuple"}],
   "outputs":[
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"farmingTokens","type":"tuple"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"reward","type":"tuple"}]}
]`

const metastakingABI = `[
  {"name":"config","type":"function","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"dualYieldTokenId","type":"string"},{"name":"lpFarmTokenId","type":"string"}]}
]`

const pairABI = `[
  {"name":"swapTokensFixedInput","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"tokenOut","type":"string"},
     {"name":"minAmountOut","type":"uint256"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"input","type":"tuple"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"output","type":"tuple"}]}
]`

const routerABI = `[
  {"name":"multiPairSwap","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"components":[{"name":"pair","type":"address"},{"name":"tokenOut","type":"string"},{"name":"minAmountOut","type":"uint256"}],"name":"steps","type":"tuple[]"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"input","type":"tuple"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"output","type":"tuple"}]},
  {"name":"getPair","type":"function","stateMutability":"view",
   "inputs":[{"name":"tokenA","type":"string"},{"name":"tokenB","type":"string"}],
   "outputs":[{"name":"pair","type":"address"}]}
]`

const energyFactoryABI = `[
  {"name":"lockTokens","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"payment","type":"tuple"},
     {"name":"epoch","type":"uint64"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"locked","type":"tuple"}]},
  {"name":"mergeTokens","type":"function","stateMutability":"nonpayable",
   "inputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"payments","type":"tuple[]"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"merged","type":"tuple"}]},
  {"name":"lockVirtual","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"tokenId","type":"string"},
     {"name":"amount","type":"uint256"},
     {"name":"epoch","type":"uint64"},
     {"name":"dest","type":"address"},
     {"name":"user","type":"address"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"locked","type":"tuple"}]}
]`

const lockedTokenWrapperABI = `[
  {"name":"wrapLockedToken","type":"function","stateMutability":"nonpayable",
   "inputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"locked","type":"tuple"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"wrapped","type":"tuple"}]}
]`

const tokenBridgeABI = `[
  {"name":"wrapNative","type":"function","stateMutability":"payable",
   "inputs":[{"name":"amount","type":"uint256"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"wrapped","type":"tuple"}]},
  {"name":"unwrapNative","type":"function","stateMutability":"nonpayable",
   "inputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"wrapped","type":"tuple"}],
   "outputs":[{"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"native","type":"tuple"}]},
  {"name":"sendTokens","type":"function","stateMutability":"nonpayable",
   "inputs":[
     {"name":"dest","type":"address"},
     {"components":[{"name":"tokenId","type":"string"},{"name":"nonce","type":"uint64"},{"name":"amount","type":"uint256"}],"name":"payments","type":"tuple[]"}],
   "outputs":[]}
]`

const templateFactoryABI = `[
  {"name":"deployFromTemplate","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"template","type":"address"},{"name":"valuesJson","type":"string"}],
   "outputs":[{"name":"instance","type":"address"}]}
]`
